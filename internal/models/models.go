package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	StatusIdle       SessionStatus = "idle"
	StatusPending    SessionStatus = "pending"
	StatusProcessing SessionStatus = "processing"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
	StatusUnknown    SessionStatus = "unknown"
)

// Terminal reports whether no further transitions follow this status.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Generating is true while the backend is still working on a session.
func (s SessionStatus) Generating() bool {
	return s != "" && s != StatusIdle && !s.Terminal()
}

type Session struct {
	ID             uuid.UUID     `json:"id"`
	CreatedAt      time.Time     `json:"created_at"`
	Name           string        `json:"name"`
	UserID         uuid.UUID     `json:"user_id"`
	Status         SessionStatus `json:"status"`
	JobTitle       string        `json:"job_title,omitempty"`
	JobDescription string        `json:"job_description,omitempty"`
}

type AnalysesResult struct {
	ID                  string   `json:"id,omitempty"`
	CandidateEmail      string   `json:"candidate_email"`
	MatchScore          int      `json:"match_score"`
	RelevantExperiences []string `json:"relevant_experiences"`
	RelevantSkills      []string `json:"relevant_skills"`
	MissingSkills       []string `json:"missing_skills"`
	Summary             string   `json:"summary"`
	Recommendation      string   `json:"recommendation"`
	// Error result entry
	IsErrorResult bool   `json:"is_error_result"`
	Error         string `json:"error,omitempty"`
}

// ErrorResult builds the entry used when a resume could not be analysed.
func ErrorResult(msg string) AnalysesResult {
	return AnalysesResult{IsErrorResult: true, Error: msg}
}

// Band buckets the match score the same way the result view colours it.
func (r AnalysesResult) Band() string {
	switch {
	case r.MatchScore < 45:
		return "weak"
	case r.MatchScore < 70:
		return "partial"
	default:
		return "strong"
	}
}

type AnalysesResults struct {
	ID        uuid.UUID        `json:"id"`
	Results   []AnalysesResult `json:"results"`
	CreatedAt time.Time        `json:"created_at"`
	SessionID uuid.UUID        `json:"session_id"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// StatusUpdate is the payload the analysis worker publishes for a session.
type StatusUpdate struct {
	SessionID uuid.UUID     `json:"session_id"`
	Status    SessionStatus `json:"status"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
