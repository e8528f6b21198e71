package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/muhammadolammi/jobmatchclient/internal/models"
)

type CreateSessionParams struct {
	Name           string `json:"name"`
	JobTitle       string `json:"job_title"`
	JobDescription string `json:"job_description"`
}

func (c *Client) ListSessions(ctx context.Context) ([]models.Session, error) {
	var sessions []models.Session
	if _, err := c.gw.Do(ctx, requestJSON(http.MethodGet, "/sessions", nil, &sessions)); err != nil {
		return nil, fmt.Errorf("error fetching sessions: %w", err)
	}
	return sessions, nil
}

func (c *Client) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var s models.Session
	if _, err := c.gw.Do(ctx, requestJSON(http.MethodGet, "/sessions/"+id.String(), nil, &s)); err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return &s, nil
}

// CreateSession rejects blank fields before anything is sent.
func (c *Client) CreateSession(ctx context.Context, params CreateSessionParams) (*models.Session, error) {
	if err := models.Required("Please fill in all fields before creating a session.", map[string]string{
		"name":            params.Name,
		"job_title":       params.JobTitle,
		"job_description": params.JobDescription,
	}); err != nil {
		return nil, err
	}
	var s models.Session
	if _, err := c.gw.Do(ctx, requestJSON(http.MethodPost, "/sessions", params, &s)); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	return &s, nil
}
