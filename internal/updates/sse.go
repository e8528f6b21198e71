package updates

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/jobmatchclient/internal/gateway"
)

const DefaultRetry = 3 * time.Second

// SSESource reads server-sent events from /sessions/{id}/updates through
// the gateway, so the stream carries the same credentials as any call.
type SSESource struct {
	gw    *gateway.Gateway
	retry time.Duration
}

func NewSSESource(gw *gateway.Gateway, retry time.Duration) *SSESource {
	if retry <= 0 {
		retry = DefaultRetry
	}
	return &SSESource{gw: gw, retry: retry}
}

func UpdatesPath(sessionID uuid.UUID) string {
	return fmt.Sprintf("/sessions/%s/updates", sessionID)
}

// Open returns immediately; connecting and reconnecting happen in the background.
func (s *SSESource) Open(ctx context.Context, sessionID uuid.UUID) (Feed, error) {
	ctx, cancel := context.WithCancel(ctx)
	f := &sseFeed{
		msgs:   make(chan []byte),
		errs:   make(chan error, 1),
		cancel: cancel,
		done:   make(chan struct{}),
		retry:  s.retry,
	}
	go f.run(ctx, s.gw, UpdatesPath(sessionID))
	return f, nil
}

type sseFeed struct {
	msgs   chan []byte
	errs   chan error
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	retry  time.Duration
	lastID string
}

func (f *sseFeed) Messages() <-chan []byte { return f.msgs }
func (f *sseFeed) Errors() <-chan error    { return f.errs }

func (f *sseFeed) Close() error {
	f.once.Do(func() {
		f.cancel()
		<-f.done
	})
	return nil
}

func (f *sseFeed) run(ctx context.Context, gw *gateway.Gateway, path string) {
	defer close(f.done)
	defer close(f.msgs)

	for {
		header := map[string]string{
			"Accept":        "text/event-stream",
			"Cache-Control": "no-cache",
		}
		if f.lastID != "" {
			header["Last-Event-ID"] = f.lastID
		}

		body, err := gw.Stream(ctx, path, header)
		if err == nil {
			err = f.read(ctx, body)
			body.Close()
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
		}
		if ctx.Err() != nil {
			return
		}

		f.report(err)
		// an HTTP error or an expired session will not fix itself
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) || errors.Is(err, gateway.ErrSessionExpired) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(f.retry):
		}
	}
}

// read dispatches "message" events until the stream ends.
func (f *sseFeed) read(ctx context.Context, body io.Reader) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	var data []string
	var event, id string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if id != "" {
				f.lastID = id
			}
			if len(data) > 0 && (event == "" || event == "message") {
				select {
				case f.msgs <- []byte(strings.Join(data, "\n")):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			data, event, id = data[:0], "", ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "data":
			data = append(data, value)
		case "event":
			event = value
		case "id":
			id = value
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
				f.retry = time.Duration(ms) * time.Millisecond
			}
		}
	}
	return scanner.Err()
}

func (f *sseFeed) report(err error) {
	select {
	case f.errs <- err:
	default:
	}
}
