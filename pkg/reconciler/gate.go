package reconciler

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Gate paces mutating requests. Wait blocks until the next request may start.
type Gate interface {
	Wait(ctx context.Context) error
}

// NewGate allows one mutation per interval. A non-positive interval
// disables pacing.
func NewGate(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

type openGate struct{}

func (openGate) Wait(ctx context.Context) error {
	return ctx.Err()
}
