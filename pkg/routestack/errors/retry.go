package errors

import (
	"context"
	"math/rand/v2"
	"time"
)

// RetryConfig is the retry policy for one handler.
type RetryConfig struct {
	MaxAttempts    int           // including the first call; <= 0 means one call
	InitialBackoff time.Duration // sleep before the first retry
	MaxBackoff     time.Duration // 0 leaves the backoff uncapped
	BackoffFactor  float64       // growth per retry, values below 1 count as 1
	Jitter         float64       // +/- fraction of the backoff, 0 to 1

	// OnRetry runs before each backoff sleep. attempt is the call that
	// just failed, starting at 1.
	OnRetry func(attempt int, err error, backoff time.Duration)
}

// DefaultRetry is the router's policy when none is configured.
var DefaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: 100 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
	BackoffFactor:  2,
	Jitter:         0.1,
}

// NoRetry calls the handler once.
var NoRetry = RetryConfig{MaxAttempts: 1}

// RetryOption adjusts a RetryConfig.
type RetryOption func(*RetryConfig)

func WithMaxAttempts(n int) RetryOption {
	return func(c *RetryConfig) { c.MaxAttempts = n }
}

func WithInitialBackoff(d time.Duration) RetryOption {
	return func(c *RetryConfig) { c.InitialBackoff = d }
}

func WithMaxBackoff(d time.Duration) RetryOption {
	return func(c *RetryConfig) { c.MaxBackoff = d }
}

func WithBackoffFactor(f float64) RetryOption {
	return func(c *RetryConfig) { c.BackoffFactor = f }
}

func WithJitter(j float64) RetryOption {
	return func(c *RetryConfig) { c.Jitter = j }
}

func WithOnRetry(fn func(attempt int, err error, backoff time.Duration)) RetryOption {
	return func(c *RetryConfig) { c.OnRetry = fn }
}

// With returns a copy of c with opts applied.
func (c RetryConfig) With(opts ...RetryOption) RetryConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c RetryConfig) maxAttempts() int {
	return max(c.MaxAttempts, 1)
}

// backoff returns the sleep after failed call n (1-based), jitter included.
func (c RetryConfig) backoff(n int) time.Duration {
	factor := max(c.BackoffFactor, 1)
	d := float64(c.InitialBackoff)
	for range n - 1 {
		d *= factor
		if c.MaxBackoff > 0 && d >= float64(c.MaxBackoff) {
			break
		}
	}
	if c.MaxBackoff > 0 {
		d = min(d, float64(c.MaxBackoff))
	}
	return jitter(time.Duration(d), c.Jitter)
}

func jitter(d time.Duration, j float64) time.Duration {
	if j <= 0 {
		return d
	}
	return d + time.Duration(float64(d)*j*(rand.Float64()*2-1))
}

// RetryResult is the outcome of Retry.
type RetryResult[T any] struct {
	Value    T
	Err      error // a *CategorizedError when every attempt failed
	Attempts int
	Duration time.Duration
}

// Retry calls fn until it succeeds, returns a permanent error, runs out of
// attempts, or ctx ends.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (T, error)) RetryResult[T] {
	start := time.Now()
	limit := cfg.maxAttempts()

	var res RetryResult[T]
	finish := func(err error) RetryResult[T] {
		if err != nil {
			res.Err = tagAttempts(err, res.Attempts)
		}
		res.Duration = time.Since(start)
		return res
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(Permanent(err, "dispatch cancelled"))
		}

		v, err := fn(ctx)
		res.Attempts++
		if err == nil {
			res.Value = v
			return finish(nil)
		}
		if res.Attempts >= limit || !IsRetryable(err) {
			return finish(err)
		}

		wait := cfg.backoff(res.Attempts)
		if cfg.OnRetry != nil {
			cfg.OnRetry(res.Attempts, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return finish(Permanent(ctx.Err(), "dispatch cancelled"))
		case <-timer.C:
		}
	}
}

// tagAttempts returns err as a CategorizedError carrying the attempt count.
func tagAttempts(err error, n int) *CategorizedError {
	if ce, ok := err.(*CategorizedError); ok {
		tagged := *ce
		tagged.Attempts = n
		return &tagged
	}
	return &CategorizedError{Err: err, Category: Categorize(err), Attempts: n}
}
