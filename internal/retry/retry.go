package retry

import (
	"context"
	"fmt"
	"time"
)

// Backoff is the base wait; attempt n waits n*Backoff before the next try.
var Backoff = 500 * time.Millisecond

// Do retries fn up to attempts times with linear backoff, stopping early
// when ctx is done. fn always runs at least once.
func Do[T any](ctx context.Context, attempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		wait := time.Duration(i+1) * Backoff
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("after %d attempts: %w", i+1, ctx.Err())
		case <-time.After(wait):
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}
