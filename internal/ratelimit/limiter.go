// Package ratelimit paces outbound calls to external lookup providers.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum interval between live provider calls. It is a
// token bucket with burst 1, so the first call passes immediately and each
// subsequent call waits out the remainder of the interval. Callers skip the
// pacer entirely for cache hits.
type Pacer struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewPacer creates a pacer with the given minimum inter-call spacing.
// A non-positive interval disables pacing.
func NewPacer(minInterval time.Duration) *Pacer {
	if minInterval <= 0 {
		return &Pacer{
			limiter:  rate.NewLimiter(rate.Inf, 1),
			interval: 0,
		}
	}
	return &Pacer{
		limiter:  rate.NewLimiter(rate.Every(minInterval), 1),
		interval: minInterval,
	}
}

// Wait blocks until the next call is allowed or the context is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// Allow reports whether a call would be admitted right now, consuming the
// slot if so.
func (p *Pacer) Allow() bool {
	return p.limiter.Allow()
}

// Interval returns the configured minimum spacing.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}
