package database

import (
	"context"

	"github.com/google/uuid"
)

const createOrUpdateAnalysesResults = `-- name: CreateOrUpdateAnalysesResults :exec
INSERT INTO analyses_results (
session_id, results)
VALUES ( $1, $2)
ON CONFLICT (session_id)
DO UPDATE SET
    results = EXCLUDED.results,
    updated_at = CURRENT_TIMESTAMP
`

type CreateOrUpdateAnalysesResultsParams struct {
	SessionID uuid.UUID
	Results   string
}

func (q *Queries) CreateOrUpdateAnalysesResults(ctx context.Context, arg CreateOrUpdateAnalysesResultsParams) error {
	_, err := q.db.ExecContext(ctx, createOrUpdateAnalysesResults, arg.SessionID, arg.Results)
	return err
}

const getAnalysesResults = `-- name: GetAnalysesResults :one
SELECT session_id, results, created_at, updated_at FROM analyses_results WHERE session_id=$1
`

func (q *Queries) GetAnalysesResults(ctx context.Context, sessionID uuid.UUID) (AnalysesResult, error) {
	row := q.db.QueryRowContext(ctx, getAnalysesResults, sessionID)
	var i AnalysesResult
	err := row.Scan(
		&i.SessionID,
		&i.Results,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
