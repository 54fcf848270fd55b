package scrape

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Limiter paces requests at a fixed interval. A 429 response doubles the
// interval, up to four times the configured one; successes step it back
// toward the configured interval.
type Limiter struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	base     rate.Limit
	min      rate.Limit
	current  rate.Limit
	disabled bool
}

// NewLimiter creates a Limiter allowing one request per interval. A
// non-positive interval disables pacing.
func NewLimiter(interval time.Duration) *Limiter {
	if interval <= 0 {
		return &Limiter{disabled: true, limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	base := rate.Every(interval)
	return &Limiter{
		limiter: rate.NewLimiter(base, 1),
		base:    base,
		min:     base / 4,
		current: base,
	}
}

// Wait blocks until the next request may be sent.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// OnSuccess moves the rate 20% back toward the configured rate.
func (l *Limiter) OnSuccess() {
	if l.disabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	next := min(l.current*1.2, l.base)
	if next != l.current {
		l.current = next
		l.limiter.SetLimit(next)
	}
}

// OnRateLimit halves the rate.
func (l *Limiter) OnRateLimit() {
	if l.disabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = max(l.current*0.5, l.min)
	l.limiter.SetLimit(l.current)
	zap.L().Warn("rate limited by graphql endpoint, slowing down",
		zap.Float64("requests_per_sec", float64(l.current)),
	)
}

// Limit returns the current rate.
func (l *Limiter) Limit() rate.Limit {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limiter.Limit()
}
