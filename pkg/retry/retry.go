// Package retry runs idempotent operations with bounded, context-aware backoff.
package retry

import (
	"context"
	"errors"
	"time"
)

// Option configures Do.
type Option func(*config)

type config struct {
	maxRetries int
	backoff    func(int) time.Duration
	maxWait    time.Duration
	retryable  func(error) bool
	onRetry    func(attempt int, err error, wait time.Duration)
}

// defaultConfig returns the default configuration: no retries.
func defaultConfig() *config {
	return &config{
		maxRetries: 0,
		backoff:    ConstantBackoff(0),
	}
}

// WithRetry sets how many times a failed call is retried after the first attempt.
func WithRetry(maxRetries int, backoff func(attempt int) time.Duration) Option {
	return func(c *config) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if backoff != nil {
			c.backoff = backoff
		}
	}
}

// WithMaxWait caps a single backoff interval.
func WithMaxWait(d time.Duration) Option {
	return func(c *config) {
		c.maxWait = d
	}
}

// WithRetryable restricts retries to errors for which fn returns true.
func WithRetryable(fn func(error) bool) Option {
	return func(c *config) {
		c.retryable = fn
	}
}

// WithOnRetry registers a hook called before each wait.
func WithOnRetry(fn func(attempt int, err error, wait time.Duration)) Option {
	return func(c *config) {
		c.onRetry = fn
	}
}

// ConstantBackoff returns a backoff function that always returns the same duration.
func ConstantBackoff(d time.Duration) func(int) time.Duration {
	return func(_ int) time.Duration {
		return d
	}
}

// ExponentialBackoff returns a backoff function that increases the duration exponentially.
// backoff = initial * 2^(attempt-1)
func ExponentialBackoff(initial time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt <= 1 {
			return initial
		}
		return initial * time.Duration(1<<(attempt-1))
	}
}

// Do calls fn until it succeeds, the retries are used up, the error is not
// retryable or ctx is done. The last error from fn is returned.
func Do(ctx context.Context, fn func(ctx context.Context) error, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return errors.Join(lastErr, err)
			}
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if cfg.retryable != nil && !cfg.retryable(lastErr) {
			return lastErr
		}

		// Don't wait after the last attempt
		if attempt == cfg.maxRetries {
			break
		}
		wait := cfg.backoff(attempt + 1)
		if cfg.maxWait > 0 && wait > cfg.maxWait {
			wait = cfg.maxWait
		}
		if cfg.onRetry != nil {
			cfg.onRetry(attempt+1, lastErr, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}
	}
	return lastErr
}
