package engine

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/akuzmina/ripeto/internal/progress"
)

// RetryConfig bounds the retry loop around remote pushes.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig is tuned for a remote push that should either
// succeed quickly or fall back to the offline queue.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// backoff computes the wait before the next attempt: exponential in the
// attempt number, capped at MaxDelay, with multiplicative jitter so
// parallel clients don't retry in lockstep.
func (c RetryConfig) backoff(attempt int) time.Duration {
	d := float64(c.BaseDelay) * math.Pow(2, float64(attempt))
	if max := float64(c.MaxDelay); d > max {
		d = max
	}
	jitter := 0.8 + 0.4*rand.Float64()
	return time.Duration(d * jitter)
}

// withRetry runs fn, retrying transient failures with backoff. Context
// errors and non-transient failures return immediately; in particular
// ErrRemoteUnavailable is not retried here, it is the caller's signal to
// queue the event instead.
func withRetry(ctx context.Context, cfg RetryConfig, fn func(context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if !progress.IsTransient(err) {
			return err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.backoff(attempt)):
		}
	}
	return lastErr
}
