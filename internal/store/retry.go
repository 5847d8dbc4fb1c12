package store

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryPolicy configures retry behavior for transient storage failures.
type RetryPolicy struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		InitialWait: 50 * time.Millisecond,
		MaxWait:     time.Second,
		Multiplier:  2.0,
	}
}

// Retry runs op until it succeeds, fails permanently, or attempts run out.
// The last error is returned.
func Retry(ctx context.Context, p RetryPolicy, op func(context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	var lastErr error
	for attempt := range attempts {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		// Last attempt: no sleep, just return the error.
		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff(attempt)):
		}
	}
	return lastErr
}

// shouldRetry determines if an error is retryable.
func shouldRetry(err error) bool {
	// Context errors are never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// A conflict means another writer won; retrying the same write cannot help.
	if errors.Is(err, ErrConflict) {
		return false
	}
	// Other errors (busy database, I/O) are treated as transient.
	return true
}

// backoff computes the wait duration for the given attempt.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	wait := float64(p.InitialWait) * math.Pow(mult, float64(attempt))
	if p.MaxWait > 0 && wait > float64(p.MaxWait) {
		wait = float64(p.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
