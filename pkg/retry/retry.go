// Package retry provides a bounded retry policy with pluggable backoff.
//
// A Policy knows nothing about HTTP. Callers classify their own errors
// through Retryable, which keeps the policy testable without a network.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/agentstation/regsync/pkg/constants"
)

// Policy runs an operation until it succeeds, fails permanently, or
// MaxRetries additional attempts have been spent.
type Policy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int

	// Backoff returns the wait before the attempt following attempt (0-based).
	Backoff func(attempt int) time.Duration

	// Retryable reports whether err is worth another attempt.
	// A nil Retryable treats every error as retryable.
	Retryable func(err error) bool

	// Sleep waits for d or until ctx is done. Tests replace it to avoid real waits.
	Sleep func(ctx context.Context, d time.Duration) error
}

// ExhaustedError is returned when every allowed attempt failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

// Error implements the error interface
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Default returns the platform policy: three retries with 1s, 2s, 4s waits.
func Default() Policy {
	return Policy{
		MaxRetries: constants.MaxRetries,
		Backoff:    Exponential(constants.RetryBackoff, constants.MaxRetryBackoff),
	}
}

// Exponential returns a base-2 backoff starting at base and capped at max.
func Exponential(base, max time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt < 0 {
			attempt = 0
		}
		if attempt > 30 {
			return max
		}
		d := base * time.Duration(1<<uint(attempt))
		if max > 0 && d > max {
			return max
		}
		return d
	}
}

// Do calls fn until it succeeds. The returned error is either the first
// non-retryable error, the context error, or an *ExhaustedError.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt == p.MaxRetries {
			break
		}
		if err := p.sleep(ctx, p.backoff(attempt)); err != nil {
			return err
		}
	}
	return &ExhaustedError{Attempts: p.MaxRetries + 1, Err: lastErr}
}

func (p Policy) backoff(attempt int) time.Duration {
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff(attempt)
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

// Sleep waits for d unless ctx is done first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
