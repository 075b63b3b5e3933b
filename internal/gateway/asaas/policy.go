package asaas

import (
	"context"
	"time"
)

// RetryPolicy bounds the attempts made against the proxy transport before
// the client falls back to the direct transport. The same per-attempt
// timeout also bounds the single direct attempt.
type RetryPolicy struct {
	// MaxAttempts is the total number of proxy attempts, first try included.
	MaxAttempts int
	// Backoff returns the delay before the given attempt (1-based).
	Backoff func(attempt int) time.Duration
	// Timeout bounds each individual attempt.
	Timeout time.Duration
}

// DefaultRetryPolicy matches the gateway contract: 3 total attempts,
// linear backoff of attempt*600ms, 12 seconds per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * 600 * time.Millisecond
		},
		Timeout: 12 * time.Second,
	}
}

// sleep waits for the backoff delay without blocking other in-flight
// operations, aborting early if the caller cancels.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
