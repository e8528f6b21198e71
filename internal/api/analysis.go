package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/muhammadolammi/jobmatchclient/internal/models"
	"github.com/tidwall/gjson"
)

type AnalyzeRequest struct {
	SessionID      uuid.UUID `json:"session_id"`
	JobTitle       string    `json:"job_title,omitempty"`
	JobDescription string    `json:"job_description,omitempty"`
}

// Analyze queues the session for analysis. Rate-limit errors come back as
// *gateway.APIError with RemainingSeconds set.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) error {
	if _, err := c.gw.Do(ctx, requestJSON(http.MethodPost, "/analyze", req, nil)); err != nil {
		return fmt.Errorf("analyze session %s: %w", req.SessionID, err)
	}
	return nil
}

func (c *Client) Results(ctx context.Context, sessionID uuid.UUID) ([]models.AnalysesResult, error) {
	resp, err := c.gw.Do(ctx, requestJSON(http.MethodGet, "/results/"+sessionID.String(), nil, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis results: %w", err)
	}
	return DecodeResults(resp.Body)
}

// DecodeResults accepts {results:[...]}, [{results:[...]}] or a bare result array.
func DecodeResults(body []byte) ([]models.AnalysesResult, error) {
	if len(body) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("results response is not valid json")
	}

	root := gjson.ParseBytes(body)
	list := root
	switch {
	case root.IsObject():
		list = root.Get("results")
	case root.IsArray() && root.Get("0.results").Exists():
		list = root.Get("0.results")
	}
	if !list.Exists() || list.Type == gjson.Null {
		return []models.AnalysesResult{}, nil
	}

	var results []models.AnalysesResult
	if err := json.Unmarshal([]byte(list.Raw), &results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return results, nil
}
