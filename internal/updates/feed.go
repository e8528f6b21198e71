package updates

import (
	"context"

	"github.com/google/uuid"
)

// Feed is one open push channel for a session. Messages carries raw JSON
// payloads; Errors carries transport failures, after which the feed may
// recover on its own.
type Feed interface {
	Messages() <-chan []byte
	Errors() <-chan error
	Close() error
}

// Source opens push channels.
type Source interface {
	Open(ctx context.Context, sessionID uuid.UUID) (Feed, error)
}
