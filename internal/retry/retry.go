// Package retry implements a bounded retry policy for storage calls that can
// fail transiently while another session holds a lock.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophportal/internal/common"
	"github.com/dmitrijs2005/gophportal/internal/dbx"
)

const (
	DefaultMaxAttempts = 5
	DefaultDelay       = time.Second
)

// Policy describes how many times an operation is attempted and how long to
// wait between attempts. The zero value is not usable; start from Default.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first one.
	MaxAttempts int

	// Backoff holds the wait before attempt i+2. When the schedule is shorter
	// than MaxAttempts-1, its last element is reused.
	Backoff []time.Duration

	// Retryable decides whether an error is transient.
	Retryable func(error) bool

	// OnRetry, if set, is called before every wait.
	OnRetry func(attempt int, err error)

	sleep func(ctx context.Context, d time.Duration) error
}

// Default returns the lock-retry policy: 5 attempts, fixed 1s delay,
// retrying busy/locked storage errors only.
func Default() Policy {
	return Fixed(DefaultMaxAttempts, DefaultDelay)
}

// Fixed returns a policy with a constant delay between attempts.
func Fixed(attempts int, delay time.Duration) Policy {
	return Policy{
		MaxAttempts: attempts,
		Backoff:     []time.Duration{delay},
		Retryable:   dbx.IsBusy,
	}
}

func (p Policy) delay(attempt int) time.Duration {
	if len(p.Backoff) == 0 {
		return 0
	}
	if attempt-1 < len(p.Backoff) {
		return p.Backoff[attempt-1]
	}
	return p.Backoff[len(p.Backoff)-1]
}

func (p Policy) wait(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, or the attempt
// budget runs out. In the last case the returned error matches
// common.ErrStorageLocked and wraps the final cause.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = dbx.IsBusy
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if !retryable(err) {
			return zero, err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if werr := p.wait(ctx, p.delay(attempt)); werr != nil {
			return zero, werr
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", common.ErrStorageLocked, attempts, lastErr)
}

// Exec is Do for operations without a result value.
func Exec(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
