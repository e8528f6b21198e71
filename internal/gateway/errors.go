package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

var ErrSessionExpired = errors.New("session expired, please login again")

// APIError is a non-2xx response passed through to the caller untouched.
type APIError struct {
	StatusCode       int
	Message          string
	RemainingSeconds int64
	Body             []byte
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status, Body: body}
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error", "message", "Message"} {
			if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.String() != "" {
				e.Message = v.String()
				break
			}
		}
		e.RemainingSeconds = gjson.GetBytes(body, "remaining_seconds").Int()
	}
	if e.Message == "" && status == http.StatusTooManyRequests {
		e.Message = "Too many requests. Try again later."
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// RetryAfter is the wait the backend asked for on rate-limited calls.
func (e *APIError) RetryAfter() time.Duration {
	return time.Duration(e.RemainingSeconds) * time.Second
}

// WaitMessage renders the backend message plus the computed wait, if any.
func (e *APIError) WaitMessage() string {
	if e.RemainingSeconds <= 0 {
		return e.Message
	}
	hours := e.RemainingSeconds / 3600
	minutes := (e.RemainingSeconds % 3600) / 60
	return fmt.Sprintf("%s\nYou can try again in %dh %dm.", e.Message, hours, minutes)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
