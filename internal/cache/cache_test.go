package cache

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/jobmatchclient/internal/database"
	"github.com/muhammadolammi/jobmatchclient/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(database.New(db), log.New(io.Discard, "", 0))
}

func TestSessionsRoundTripAndStatusHook(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	older := models.Session{
		ID: uuid.New(), Name: "Backend", UserID: uuid.New(), Status: models.StatusCompleted,
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	newer := models.Session{
		ID: uuid.New(), Name: "Frontend", UserID: older.UserID, Status: models.StatusPending,
		JobTitle: "React dev", CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.SaveSessions(ctx, []models.Session{older, newer}))

	hook := c.StatusHook(ctx)
	hook(newer.ID, models.StatusIdle)
	hook(newer.ID, models.StatusProcessing)

	got, err := c.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, models.StatusProcessing, got[0].Status)
	assert.Equal(t, "React dev", got[0].JobTitle)
	assert.Equal(t, older.Name, got[1].Name)
}

func TestResults(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	id := uuid.New()

	_, err := c.Results(ctx, id)
	assert.ErrorIs(t, err, ErrNotCached)

	results := []models.AnalysesResult{
		{CandidateEmail: "jane@doe.io", MatchScore: 77, RelevantSkills: []string{"Go"}},
		models.ErrorResult("text extraction error"),
	}
	require.NoError(t, c.SaveResults(ctx, id, results))
	require.NoError(t, c.SaveResults(ctx, id, results[:1]))

	got, err := c.Results(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 77, got[0].MatchScore)
	assert.Equal(t, []string{"Go"}, got[0].RelevantSkills)
}
