package llm

import (
	"context"
	"fmt"
	"time"
)

const maxBackoff = 30 * time.Second

// retry runs fn until it succeeds, fails with a permanent error or runs out
// of attempts. Delays double from baseDelay and stop early when ctx ends.
func retry[T any](ctx context.Context, maxRetries int, baseDelay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if ctx.Err() != nil || !isRetryable(err) {
			return zero, err
		}
		if attempt == maxRetries {
			break
		}
		if err := sleep(ctx, backoff(baseDelay, attempt)); err != nil {
			return zero, lastErr
		}
	}
	return zero, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

func backoff(base time.Duration, attempt int) time.Duration {
	return min(base<<attempt, maxBackoff)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
