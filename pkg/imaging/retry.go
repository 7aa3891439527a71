package imaging

import (
	"context"
	"fmt"
	"time"
)

// RetryOptions configures WithRetry. MaxRetries is the total number of
// attempts, including the first.
type RetryOptions struct {
	MaxRetries  int
	RetryDelay  time.Duration
	ShouldRetry func(error) bool
}

// DefaultRetryOptions retries transient failures up to 3 attempts with a
// fixed one-second delay.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:  3,
		RetryDelay:  time.Second,
		ShouldRetry: DefaultShouldRetry,
	}
}

// WithRetry runs op until it succeeds, the retry predicate rejects the
// error, or the attempt budget runs out. The last error is returned
// unwrapped so callers can still assert on its type.
func WithRetry[T any](ctx context.Context, op func(context.Context) (T, error), opts RetryOptions) (T, error) {
	var zero T
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultRetryOptions().MaxRetries
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = DefaultRetryOptions().RetryDelay
	}
	if opts.ShouldRetry == nil {
		opts.ShouldRetry = DefaultShouldRetry
	}

	var lastErr error
	for attempt := 0; attempt < opts.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(opts.RetryDelay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !opts.ShouldRetry(err) {
			return zero, err
		}
	}
	return zero, fmt.Errorf("failed after %d attempts: %w", opts.MaxRetries, lastErr)
}
