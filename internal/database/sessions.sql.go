package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const upsertSession = `-- name: UpsertSession :exec
INSERT INTO sessions (id, name, user_id, status, job_title, job_description, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id)
DO UPDATE SET
    name = EXCLUDED.name,
    status = EXCLUDED.status,
    job_title = EXCLUDED.job_title,
    job_description = EXCLUDED.job_description
`

type UpsertSessionParams struct {
	ID             uuid.UUID
	Name           string
	UserID         uuid.UUID
	Status         string
	JobTitle       string
	JobDescription string
	CreatedAt      time.Time
}

func (q *Queries) UpsertSession(ctx context.Context, arg UpsertSessionParams) error {
	_, err := q.db.ExecContext(ctx, upsertSession,
		arg.ID,
		arg.Name,
		arg.UserID,
		arg.Status,
		arg.JobTitle,
		arg.JobDescription,
		arg.CreatedAt,
	)
	return err
}

const updateSessionStatus = `-- name: UpdateSessionStatus :exec
UPDATE sessions 
SET status=$1
WHERE id=$2
`

type UpdateSessionStatusParams struct {
	Status string
	ID     uuid.UUID
}

func (q *Queries) UpdateSessionStatus(ctx context.Context, arg UpdateSessionStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateSessionStatus, arg.Status, arg.ID)
	return err
}

const listSessions = `-- name: ListSessions :many
SELECT id, name, user_id, status, job_title, job_description, created_at FROM sessions ORDER BY created_at DESC
`

func (q *Queries) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := q.db.QueryContext(ctx, listSessions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Session
	for rows.Next() {
		var i Session
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.UserID,
			&i.Status,
			&i.JobTitle,
			&i.JobDescription,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
