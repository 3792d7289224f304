package workflow

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy is the bounded-retry policy applied uniformly at the
// client boundary: a fixed delay between attempts, no backoff.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy matches the production cadence: three attempts
// with a short fixed delay.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Delay: 2 * time.Second}

// Do runs op until it succeeds, the attempts are exhausted, or the
// context is cancelled. The delay sleep honors cancellation.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = op(ctx); lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}
