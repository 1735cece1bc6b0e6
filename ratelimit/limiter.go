// Package ratelimit spaces out calls to the reasoning service.
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum interval between consecutive calls. One instance
// is shared by every cascade stage for the whole run.
type Limiter struct {
	limiter     *rate.Limiter
	minInterval time.Duration
	logger      *slog.Logger
}

// New creates a Limiter. A zero interval never waits.
func New(minInterval time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Limiter{
		limiter:     rate.NewLimiter(limit, 1),
		minInterval: minInterval,
		logger:      logger,
	}
}

// MinInterval returns the configured interval
func (l *Limiter) MinInterval() time.Duration {
	return l.minInterval
}

// WaitIfNeeded blocks until at least MinInterval has passed since the
// previous call. Every call, including ones that did not wait, starts a new
// window.
func (l *Limiter) WaitIfNeeded(ctx context.Context) error {
	r := l.limiter.Reserve()
	delay := r.Delay()
	if delay <= 0 {
		return nil
	}

	l.logger.Info("waiting before reasoning call", "wait", delay.Round(10*time.Millisecond))
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}
