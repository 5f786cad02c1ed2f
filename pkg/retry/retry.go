// Package retry provides the bounded exponential-backoff-with-jitter helper
// shared by the weather facade (C2), the notifier facade (C3), and any stage
// that must retry a transient provider failure within its budget. The shape
// mirrors the teacher's MCP recovery constants (pkg/mcp/recovery.go) — fixed
// min/max jitter bounds and a capped retry count — built on
// github.com/cenkalti/backoff/v4 rather than a hand-rolled sleep loop.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/burnwise/coordinator/pkg/bwerr"
)

// Policy configures a bounded exponential backoff run.
type Policy struct {
	// MaxElapsed bounds the whole retry run; it should be set to (slightly
	// less than) the caller's stage budget so the retry loop never itself
	// blows the deadline.
	MaxElapsed time.Duration
	// InitialInterval is the first backoff delay before jitter.
	InitialInterval time.Duration
	// MaxInterval caps the exponential growth.
	MaxInterval time.Duration
	// MaxAttempts additionally bounds the number of calls regardless of
	// elapsed time (0 means unbounded by count).
	MaxAttempts int
}

// DefaultPolicy matches the teacher's RetryBackoffMin/RetryBackoffMax window,
// scaled up for provider calls that run for seconds rather than the MCP
// recovery path's sub-second reconnects.
func DefaultPolicy(budget time.Duration) Policy {
	return Policy{
		MaxElapsed:      budget,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxAttempts:     6,
	}
}

// Do runs fn, retrying with jittered exponential backoff while
// bwerr.IsRetryable(err) is true and the policy budget has not been
// exhausted. A non-retryable error (validation, auth, numeric, ...) returns
// immediately. Honors ctx cancellation at every suspension point.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.MaxElapsedTime = p.MaxElapsed

	withCtx := backoff.WithContext(b, ctx)

	attempts := 0
	operation := func() error {
		attempts++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if rl, ok := asRateLimited(err); ok && rl.RetryAfter > 0 {
			// Honor the provider's requested delay instead of our own backoff curve.
			select {
			case <-time.After(rl.RetryAfter):
			case <-ctx.Done():
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		if !bwerr.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		if p.MaxAttempts > 0 && attempts >= p.MaxAttempts {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(operation, withCtx)
}

func asRateLimited(err error) (*bwerr.RateLimitedError, bool) {
	var rl *bwerr.RateLimitedError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}
