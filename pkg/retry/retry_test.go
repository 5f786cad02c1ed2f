package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burnwise/coordinator/pkg/bwerr"
)

func TestDoSucceedsWithoutRetryOnFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultPolicy(time.Second), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientFailureThenSucceeds(t *testing.T) {
	calls := 0
	policy := Policy{MaxElapsed: time.Second, InitialInterval: time.Millisecond, MaxInterval: 10 * time.Millisecond, MaxAttempts: 5}
	err := Do(context.Background(), policy, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &bwerr.UnavailableError{Provider: "weather"}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoDoesNotRetryNonRetryableError(t *testing.T) {
	calls := 0
	validationErr := &bwerr.ValidationError{Fields: map[string]string{"f": "bad"}}
	err := Do(context.Background(), DefaultPolicy(time.Second), func(ctx context.Context) error {
		calls++
		return validationErr
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	kind, ok := bwerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, bwerr.KindValidation, kind)
}

func TestDoStopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	policy := Policy{MaxElapsed: time.Second, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, MaxAttempts: 3}
	err := Do(context.Background(), policy, func(ctx context.Context) error {
		calls++
		return &bwerr.UnavailableError{Provider: "weather"}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	policy := Policy{MaxElapsed: time.Second, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, MaxAttempts: 5}
	err := Do(ctx, policy, func(ctx context.Context) error {
		calls++
		return &bwerr.UnavailableError{Provider: "weather"}
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoHonorsProviderRetryAfter(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultPolicy(time.Second), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return &bwerr.RateLimitedError{RetryAfter: time.Millisecond}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

var _ = errors.New // keep errors imported if test set shrinks
