package database

import (
	"time"

	"github.com/google/uuid"
)

type Credential struct {
	Profile     string
	AccessToken string
	UpdatedAt   time.Time
}

type Session struct {
	ID             uuid.UUID
	Name           string
	UserID         uuid.UUID
	Status         string
	JobTitle       string
	JobDescription string
	CreatedAt      time.Time
}

type AnalysesResult struct {
	SessionID uuid.UUID
	Results   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
