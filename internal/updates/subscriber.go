package updates

import (
	"context"
	"fmt"
	"iter"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/jobmatchclient/internal/models"
	"github.com/tidwall/gjson"
)

const DefaultErrorGrace = 3 * time.Second

// Subscriber mirrors the backend-reported status of one session at a time.
// It never holds more than one open feed.
type Subscriber struct {
	source Source
	grace  time.Duration
	logger *log.Logger
	// OnStatus, if set, is called with every applied status change.
	OnStatus func(sessionID uuid.UUID, status models.SessionStatus)

	mu      sync.Mutex
	status  models.SessionStatus
	current *subscription
	changed chan struct{}
	pending []statusChange

	notifyMu sync.Mutex
}

type statusChange struct {
	sessionID uuid.UUID
	status    models.SessionStatus
}

type subscription struct {
	sessionID uuid.UUID
	feed      Feed
	done      chan struct{}
	closeOnce sync.Once
	timer     *time.Timer
	// graceGen invalidates grace callbacks that fired but have not run yet.
	graceGen int
}

type Option func(*Subscriber)

func WithErrorGrace(d time.Duration) Option {
	return func(s *Subscriber) { s.grace = d }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Subscriber) { s.logger = l }
}

func NewSubscriber(source Source, opts ...Option) *Subscriber {
	s := &Subscriber{
		source:  source,
		grace:   DefaultErrorGrace,
		logger:  log.Default(),
		status:  models.StatusIdle,
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status is the last applied status, or idle before any subscription.
func (s *Subscriber) Status() models.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Open reports whether a feed is currently open.
func (s *Subscriber) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// SubscribeSession starts from the session's last known status.
func (s *Subscriber) SubscribeSession(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("nil session")
	}
	return s.Subscribe(ctx, session.ID, session.Status)
}

// Subscribe closes any open feed, then opens one for sessionID. Nothing is
// opened when the last known status is already terminal.
func (s *Subscriber) Subscribe(ctx context.Context, sessionID uuid.UUID, last models.SessionStatus) error {
	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseLocked(s.current)
	if last == "" {
		last = models.StatusIdle
	}
	s.setLocked(sessionID, last)
	if last.Terminal() {
		return nil
	}

	feed, err := s.source.Open(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("open updates for session %s: %w", sessionID, err)
	}
	sub := &subscription{sessionID: sessionID, feed: feed, done: make(chan struct{})}
	s.current = sub
	go s.pump(sub)
	return nil
}

// Close tears down the open feed, if any.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(s.current)
	return nil
}

func (s *Subscriber) pump(sub *subscription) {
	msgs, errs := sub.feed.Messages(), sub.feed.Errors()
	for {
		select {
		case <-sub.done:
			return
		case payload, ok := <-msgs:
			if !ok {
				s.release(sub)
				return
			}
			s.handle(sub, payload)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.handleError(sub, err)
		}
	}
}

func (s *Subscriber) handle(sub *subscription, payload []byte) {
	if !gjson.ValidBytes(payload) {
		s.logger.Printf("⚠️ Failed to parse status update: %q", payload)
		return
	}
	st := gjson.GetBytes(payload, "status")
	if st.Type != gjson.String {
		s.logger.Printf("⚠️ Unexpected status payload: %s", payload)
		return
	}
	status := models.SessionStatus(st.String())

	defer s.notify()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(sub, status)
}

func (s *Subscriber) applyLocked(sub *subscription, status models.SessionStatus) {
	if s.current != sub {
		return
	}
	if sub.timer != nil {
		sub.timer.Stop()
		sub.timer = nil
		sub.graceGen++
	}
	s.setLocked(sub.sessionID, status)
	if status.Terminal() {
		s.releaseLocked(sub)
	}
}

// handleError leaves the feed to recover and closes it after the grace
// period unless a message arrives first.
func (s *Subscriber) handleError(sub *subscription, err error) {
	s.logger.Printf("⚠️ [updates] connection error for session %s: %v", sub.sessionID, err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != sub || sub.timer != nil {
		return
	}
	sub.graceGen++
	gen := sub.graceGen
	sub.timer = time.AfterFunc(s.grace, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub.graceGen != gen {
			return
		}
		s.releaseLocked(sub)
	})
}

func (s *Subscriber) release(sub *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(sub)
}

func (s *Subscriber) releaseLocked(sub *subscription) {
	if sub == nil || s.current != sub {
		return
	}
	s.current = nil
	sub.closeOnce.Do(func() {
		if sub.timer != nil {
			sub.timer.Stop()
		}
		close(sub.done)
		if err := sub.feed.Close(); err != nil {
			s.logger.Printf("⚠️ failed to close updates for session %s: %v", sub.sessionID, err)
		}
	})
	s.broadcastLocked()
}

func (s *Subscriber) setLocked(sessionID uuid.UUID, status models.SessionStatus) {
	if s.status == status {
		return
	}
	s.status = status
	if s.OnStatus != nil {
		s.pending = append(s.pending, statusChange{sessionID: sessionID, status: status})
	}
	s.broadcastLocked()
}

// notify runs OnStatus for queued changes in order, outside s.mu.
func (s *Subscriber) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	for {
		s.mu.Lock()
		pending := s.pending
		s.pending = nil
		s.mu.Unlock()
		if len(pending) == 0 {
			return
		}
		for _, c := range pending {
			s.OnStatus(c.sessionID, c.status)
		}
	}
}

func (s *Subscriber) broadcastLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// Statuses yields the current status and every later change until the
// status is terminal, the feed is closed, or ctx is done. Fast successive
// changes may be coalesced.
func (s *Subscriber) Statuses(ctx context.Context) iter.Seq[models.SessionStatus] {
	return func(yield func(models.SessionStatus) bool) {
		var last models.SessionStatus
		for {
			s.mu.Lock()
			status, open, changed := s.status, s.current != nil, s.changed
			s.mu.Unlock()

			if status != last {
				last = status
				if !yield(status) {
					return
				}
			}
			if status.Terminal() || !open {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-changed:
			}
		}
	}
}

// Wait blocks until the status is terminal or the feed closes.
func (s *Subscriber) Wait(ctx context.Context) (models.SessionStatus, error) {
	last := s.Status()
	for status := range s.Statuses(ctx) {
		last = status
	}
	return last, ctx.Err()
}
