package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/jobmatchclient/internal/database"
	"github.com/muhammadolammi/jobmatchclient/internal/models"
	"github.com/muhammadolammi/jobmatchclient/internal/retry"
)

const writeAttempts = 3

var ErrNotCached = errors.New("not cached")

// Cache keeps the last sessions and results seen from the backend so they
// can be shown offline. The backend stays the source of truth.
type Cache struct {
	db     *database.Queries
	logger *log.Logger
}

func New(db *database.Queries, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.Default()
	}
	return &Cache{db: db, logger: logger}
}

func (c *Cache) SaveSessions(ctx context.Context, sessions []models.Session) error {
	for _, s := range sessions {
		params := database.UpsertSessionParams{
			ID:             s.ID,
			Name:           s.Name,
			UserID:         s.UserID,
			Status:         string(s.Status),
			JobTitle:       s.JobTitle,
			JobDescription: s.JobDescription,
			CreatedAt:      s.CreatedAt,
		}
		if params.CreatedAt.IsZero() {
			params.CreatedAt = time.Now().UTC()
		}
		_, err := retry.Do(ctx, writeAttempts, func() (any, error) {
			return nil, c.db.UpsertSession(ctx, params)
		})
		if err != nil {
			return fmt.Errorf("failed to cache session %s: %w", s.ID, err)
		}
	}
	return nil
}

func (c *Cache) Sessions(ctx context.Context) ([]models.Session, error) {
	rows, err := c.db.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached sessions: %w", err)
	}
	sessions := make([]models.Session, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, models.Session{
			ID:             r.ID,
			CreatedAt:      r.CreatedAt,
			Name:           r.Name,
			UserID:         r.UserID,
			Status:         models.SessionStatus(r.Status),
			JobTitle:       r.JobTitle,
			JobDescription: r.JobDescription,
		})
	}
	return sessions, nil
}

func (c *Cache) SetStatus(ctx context.Context, sessionID uuid.UUID, status models.SessionStatus) error {
	err := c.db.UpdateSessionStatus(ctx, database.UpdateSessionStatusParams{
		Status: string(status),
		ID:     sessionID,
	})
	if err != nil {
		return fmt.Errorf("failed to cache status of session %s: %w", sessionID, err)
	}
	return nil
}

// StatusHook records backend statuses pushed to a subscriber. Client-only
// statuses are not written.
func (c *Cache) StatusHook(ctx context.Context) func(uuid.UUID, models.SessionStatus) {
	return func(sessionID uuid.UUID, status models.SessionStatus) {
		if status == models.StatusIdle || status == models.StatusUnknown {
			return
		}
		if err := c.SetStatus(ctx, sessionID, status); err != nil {
			c.logger.Printf("⚠️ %v", err)
		}
	}
}

func (c *Cache) SaveResults(ctx context.Context, sessionID uuid.UUID, results []models.AnalysesResult) error {
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal analyses results: %w", err)
	}
	_, err = retry.Do(ctx, writeAttempts, func() (any, error) {
		return nil, c.db.CreateOrUpdateAnalysesResults(ctx, database.CreateOrUpdateAnalysesResultsParams{
			SessionID: sessionID,
			Results:   string(resultsJSON),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to cache results after retries: %w", err)
	}
	return nil
}

func (c *Cache) Results(ctx context.Context, sessionID uuid.UUID) ([]models.AnalysesResult, error) {
	row, err := c.db.GetAnalysesResults(ctx, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("results for session %s: %w", sessionID, ErrNotCached)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cached results: %w", err)
	}
	var results []models.AnalysesResult
	if err := json.Unmarshal([]byte(row.Results), &results); err != nil {
		return nil, fmt.Errorf("failed to decode cached results: %w", err)
	}
	return results, nil
}
