package resilience

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls how a call is retried. The delay between attempts is
// constant.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first. Values
	// below 1 mean a single attempt.
	MaxAttempts int
	// Delay is the pause between attempts.
	Delay time.Duration
	// ShouldRetry decides whether an error is worth another attempt. If nil,
	// IsTransient is used.
	ShouldRetry func(err error) bool
	// OnRetry is called before each retry pause with the number of the failed
	// attempt and its error.
	OnRetry func(attempt int, err error)
}

// FixedRetryConfig retries every error up to attempts times with the same
// delay between attempts.
func FixedRetryConfig(attempts int, delay time.Duration) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		Delay:       delay,
		ShouldRetry: AlwaysRetry,
	}
}

// AlwaysRetry treats every error as retryable.
func AlwaysRetry(err error) bool { return err != nil }

// DoVal calls fn until it succeeds, the attempts run out, ShouldRetry
// rejects the error or ctx is done. The last error is returned.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := max(cfg.MaxAttempts, 1)
	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !shouldRetry(err) || attempt == attempts {
			break
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}
		if Sleep(ctx, cfg.Delay) != nil {
			break
		}
	}
	return zero, lastErr
}

// Sleep pauses for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// RetryLogger returns an OnRetry callback that logs each retry attempt.
// Extra fields identify the unit of work being retried.
func RetryLogger(service, operation string, fields ...zap.Field) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			append([]zap.Field{
				zap.String("service", service),
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Error(err),
			}, fields...)...,
		)
	}
}
