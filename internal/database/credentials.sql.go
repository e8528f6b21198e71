package database

import (
	"context"
)

const getCredential = `-- name: GetCredential :one
SELECT profile, access_token, updated_at FROM credentials WHERE profile=$1
`

func (q *Queries) GetCredential(ctx context.Context, profile string) (Credential, error) {
	row := q.db.QueryRowContext(ctx, getCredential, profile)
	var i Credential
	err := row.Scan(&i.Profile, &i.AccessToken, &i.UpdatedAt)
	return i, err
}

const saveCredential = `-- name: SaveCredential :exec
INSERT INTO credentials (profile, access_token)
VALUES ($1, $2)
ON CONFLICT (profile)
DO UPDATE SET
    access_token = EXCLUDED.access_token,
    updated_at = CURRENT_TIMESTAMP
`

type SaveCredentialParams struct {
	Profile     string
	AccessToken string
}

func (q *Queries) SaveCredential(ctx context.Context, arg SaveCredentialParams) error {
	_, err := q.db.ExecContext(ctx, saveCredential, arg.Profile, arg.AccessToken)
	return err
}

const deleteCredential = `-- name: DeleteCredential :exec
DELETE FROM credentials WHERE profile=$1
`

func (q *Queries) DeleteCredential(ctx context.Context, profile string) error {
	_, err := q.db.ExecContext(ctx, deleteCredential, profile)
	return err
}
