package updates

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/jobmatchclient/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	id     uuid.UUID
	msgs   chan []byte
	errs   chan error
	closed atomic.Bool
}

func (f *fakeFeed) Messages() <-chan []byte { return f.msgs }
func (f *fakeFeed) Errors() <-chan error    { return f.errs }
func (f *fakeFeed) Close() error {
	f.closed.Store(true)
	return nil
}

type fakeSource struct {
	mu    sync.Mutex
	feeds []*fakeFeed
	err   error
}

func (s *fakeSource) Open(_ context.Context, id uuid.UUID) (Feed, error) {
	if s.err != nil {
		return nil, s.err
	}
	f := &fakeFeed{id: id, msgs: make(chan []byte, 8), errs: make(chan error, 8)}
	s.mu.Lock()
	s.feeds = append(s.feeds, f)
	s.mu.Unlock()
	return f, nil
}

func (s *fakeSource) open() []*fakeFeed {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeFeed
	for _, f := range s.feeds {
		if !f.closed.Load() {
			out = append(out, f)
		}
	}
	return out
}

func (s *fakeSource) feed(i int) *fakeFeed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feeds[i]
}

func newTestSubscriber(src Source, grace time.Duration) *Subscriber {
	return NewSubscriber(src, WithErrorGrace(grace), WithLogger(log.New(io.Discard, "", 0)))
}

func statusIs(s *Subscriber, want models.SessionStatus) func() bool {
	return func() bool { return s.Status() == want }
}

func TestStartsIdle(t *testing.T) {
	s := newTestSubscriber(&fakeSource{}, time.Second)
	assert.Equal(t, models.StatusIdle, s.Status())
	assert.False(t, s.Open())
}

func TestSubscribeInitialisesFromLastKnownStatus(t *testing.T) {
	src := &fakeSource{}
	s := newTestSubscriber(src, time.Second)
	defer s.Close()

	require.NoError(t, s.SubscribeSession(context.Background(), &models.Session{ID: uuid.New(), Status: models.StatusPending}))
	assert.Equal(t, models.StatusPending, s.Status())
	assert.True(t, s.Open())
	assert.Len(t, src.open(), 1)
}

func TestResubscribeKeepsOneOpenFeed(t *testing.T) {
	src := &fakeSource{}
	s := newTestSubscriber(src, time.Second)
	defer s.Close()

	a, b := uuid.New(), uuid.New()
	require.NoError(t, s.Subscribe(context.Background(), a, models.StatusPending))
	require.NoError(t, s.Subscribe(context.Background(), b, models.StatusProcessing))

	open := src.open()
	require.Len(t, open, 1)
	assert.Equal(t, b, open[0].id)
	assert.True(t, src.feed(0).closed.Load())

	// late events from the torn down feed are ignored
	src.feed(0).msgs <- []byte(`{"status":"failed"}`)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, models.StatusProcessing, s.Status())
}

func TestTerminalStatusClosesFeed(t *testing.T) {
	for _, terminal := range []models.SessionStatus{models.StatusCompleted, models.StatusFailed} {
		t.Run(string(terminal), func(t *testing.T) {
			src := &fakeSource{}
			s := newTestSubscriber(src, time.Second)

			require.NoError(t, s.Subscribe(context.Background(), uuid.New(), models.StatusPending))
			f := src.feed(0)
			f.msgs <- []byte(`{"status":"processing"}`)
			f.msgs <- []byte(`{"status":"` + string(terminal) + `"}`)

			require.Eventually(t, statusIs(s, terminal), time.Second, 5*time.Millisecond)
			require.Eventually(t, f.closed.Load, time.Second, 5*time.Millisecond)
			assert.False(t, s.Open())
		})
	}
}

func TestMalformedPayloadLeavesStatusUnchanged(t *testing.T) {
	src := &fakeSource{}
	s := newTestSubscriber(src, time.Second)
	defer s.Close()

	require.NoError(t, s.Subscribe(context.Background(), uuid.New(), models.StatusPending))
	f := src.feed(0)
	f.msgs <- []byte(`not json`)
	f.msgs <- []byte(`{"status":42}`)
	f.msgs <- []byte(`{"progress":10}`)
	f.msgs <- []byte(`{"status":"processing"}`)

	require.Eventually(t, statusIs(s, models.StatusProcessing), time.Second, 5*time.Millisecond)
	assert.True(t, s.Open())
	assert.False(t, f.closed.Load())
}

func TestTransportErrorClosesAfterGrace(t *testing.T) {
	src := &fakeSource{}
	s := newTestSubscriber(src, 30*time.Millisecond)

	require.NoError(t, s.Subscribe(context.Background(), uuid.New(), models.StatusProcessing))
	f := src.feed(0)
	f.errs <- errors.New("connection reset")

	time.Sleep(10 * time.Millisecond)
	assert.False(t, f.closed.Load(), "closed before the grace period")
	require.Eventually(t, f.closed.Load, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.StatusProcessing, s.Status())
}

func TestMessageAfterErrorCancelsPendingClose(t *testing.T) {
	src := &fakeSource{}
	s := newTestSubscriber(src, 50*time.Millisecond)
	defer s.Close()

	require.NoError(t, s.Subscribe(context.Background(), uuid.New(), models.StatusPending))
	f := src.feed(0)
	f.errs <- errors.New("connection reset")
	time.Sleep(10 * time.Millisecond)
	f.msgs <- []byte(`{"status":"processing"}`)

	require.Eventually(t, statusIs(s, models.StatusProcessing), time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.False(t, f.closed.Load())
	assert.True(t, s.Open())
}

func TestFiredGraceCloseLosesToLaterMessage(t *testing.T) {
	src := &fakeSource{}
	s := newTestSubscriber(src, 5*time.Millisecond)
	defer s.Close()

	require.NoError(t, s.Subscribe(context.Background(), uuid.New(), models.StatusPending))
	f := src.feed(0)
	f.errs <- errors.New("connection reset")
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.current != nil && s.current.timer != nil
	}, time.Second, time.Millisecond)

	// hold the lock past the grace period so the timer callback is left waiting
	s.mu.Lock()
	time.Sleep(30 * time.Millisecond)
	s.applyLocked(s.current, models.StatusProcessing)
	s.mu.Unlock()

	time.Sleep(30 * time.Millisecond)
	assert.False(t, f.closed.Load())
	assert.True(t, s.Open())
	assert.Equal(t, models.StatusProcessing, s.Status())
}

func TestCloseTearsDownFeed(t *testing.T) {
	src := &fakeSource{}
	s := newTestSubscriber(src, time.Second)

	require.NoError(t, s.Subscribe(context.Background(), uuid.New(), models.StatusPending))
	require.NoError(t, s.Close())
	assert.True(t, src.feed(0).closed.Load())
	assert.False(t, s.Open())

	src.feed(0).msgs <- []byte(`{"status":"completed"}`)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, models.StatusPending, s.Status())
}

func TestTerminalLastStatusOpensNothing(t *testing.T) {
	src := &fakeSource{}
	s := newTestSubscriber(src, time.Second)

	require.NoError(t, s.Subscribe(context.Background(), uuid.New(), models.StatusCompleted))
	assert.Equal(t, models.StatusCompleted, s.Status())
	assert.Empty(t, src.feeds)
}

func TestOpenFailureIsReturned(t *testing.T) {
	src := &fakeSource{err: errors.New("dial tcp: refused")}
	s := newTestSubscriber(src, time.Second)

	err := s.Subscribe(context.Background(), uuid.New(), models.StatusPending)
	require.Error(t, err)
	assert.False(t, s.Open())
	assert.Equal(t, models.StatusPending, s.Status())
}

func TestOnStatusSeesEveryChange(t *testing.T) {
	src := &fakeSource{}
	s := newTestSubscriber(src, time.Second)
	id := uuid.New()

	var mu sync.Mutex
	var seen []models.SessionStatus
	s.OnStatus = func(got uuid.UUID, status models.SessionStatus) {
		assert.Equal(t, id, got)
		mu.Lock()
		seen = append(seen, status)
		mu.Unlock()
	}

	require.NoError(t, s.Subscribe(context.Background(), id, models.StatusPending))
	src.feed(0).msgs <- []byte(`{"status":"processing"}`)
	src.feed(0).msgs <- []byte(`{"status":"completed"}`)
	require.Eventually(t, statusIs(s, models.StatusCompleted), time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []models.SessionStatus{models.StatusPending, models.StatusProcessing, models.StatusCompleted}, seen)
}

func TestStatusesEndsOnTerminal(t *testing.T) {
	src := &fakeSource{}
	s := newTestSubscriber(src, time.Second)
	require.NoError(t, s.Subscribe(context.Background(), uuid.New(), models.StatusPending))

	go func() {
		time.Sleep(10 * time.Millisecond)
		src.feed(0).msgs <- []byte(`{"status":"failed"}`)
	}()

	var got []models.SessionStatus
	for status := range s.Statuses(context.Background()) {
		got = append(got, status)
	}
	require.NotEmpty(t, got)
	assert.Equal(t, models.StatusPending, got[0])
	assert.Equal(t, models.StatusFailed, got[len(got)-1])
}

func TestWaitHonoursContext(t *testing.T) {
	src := &fakeSource{}
	s := newTestSubscriber(src, time.Second)
	defer s.Close()
	require.NoError(t, s.Subscribe(context.Background(), uuid.New(), models.StatusProcessing))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	status, err := s.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, models.StatusProcessing, status)
}

func TestOnStatusRunsOutsideLock(t *testing.T) {
	src := &fakeSource{}
	s := newTestSubscriber(src, time.Second)
	defer s.Close()

	seen := make(chan models.SessionStatus, 4)
	s.OnStatus = func(_ uuid.UUID, status models.SessionStatus) {
		// reading back from the hook must not deadlock
		seen <- s.Status()
	}

	require.NoError(t, s.Subscribe(context.Background(), uuid.New(), models.StatusPending))
	src.feed(0).msgs <- []byte(`{"status":"processing"}`)

	for _, want := range []models.SessionStatus{models.StatusPending, models.StatusProcessing} {
		select {
		case got := <-seen:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("OnStatus not called for %s", want)
		}
	}
}
