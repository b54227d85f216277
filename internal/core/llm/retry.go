package llm

import (
	"context"
	"fmt"
	"time"
)

// retryDo runs fn up to attempts times with doubling delays, stopping
// early when the context is cancelled. Transient model-API failures are
// absorbed here so the core never sees them.
func retryDo(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	delay := baseDelay
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}
