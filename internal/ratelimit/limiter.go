// Package ratelimit paces page fetches for the harvester.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter caps the rate at which fetches start. A non-positive rate
// disables the cap.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a new rate limiter.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Limiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a request is allowed or context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Pacer applies the fixed delay that follows every processed URL.
type Pacer struct {
	delay time.Duration
}

// NewPacer creates a pacer with the given delay. A non-positive delay
// makes Pause return immediately.
func NewPacer(delay time.Duration) *Pacer {
	if delay < 0 {
		delay = 0
	}
	return &Pacer{delay: delay}
}

// Pause sleeps for the configured delay. It returns early with the
// context's error if ctx is cancelled first.
func (p *Pacer) Pause(ctx context.Context) error {
	if p.delay == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Delay returns the configured pause duration.
func (p *Pacer) Delay() time.Duration {
	return p.delay
}
