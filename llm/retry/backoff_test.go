package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/amendo-ai/amendo/types"
)

func fastPolicy() *Policy {
	return &Policy{
		MaxRetries:   3,
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetryer_SucceedsFirstAttempt(t *testing.T) {
	r := NewBackoffRetryer(fastPolicy(), zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryer_RetriesRetryableThenSucceeds(t *testing.T) {
	r := NewBackoffRetryer(fastPolicy(), zap.NewNop())

	calls := 0
	result, err := r.DoWithResult(context.Background(), func() (any, error) {
		calls++
		if calls < 3 {
			return nil, types.NewError(types.ErrRateLimited, "slow down").WithRetryable(true)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestRetryer_StopsOnNonRetryable(t *testing.T) {
	r := NewBackoffRetryer(fastPolicy(), zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return types.NewError(types.ErrInvalidRequest, "bad input")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, types.ErrInvalidRequest, types.GetErrorCode(err))
}

func TestRetryer_ExhaustsBudget(t *testing.T) {
	policy := fastPolicy()
	retries := 0
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		retries++
	}
	r := NewBackoffRetryer(policy, zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		return types.NewError(types.ErrUpstreamTimeout, "timeout").WithRetryable(true)
	})

	require.Error(t, err)
	assert.Equal(t, policy.MaxRetries+1, calls)
	assert.Equal(t, policy.MaxRetries, retries)
	assert.Contains(t, err.Error(), "failed after")
}

func TestRetryer_RetryIfPredicateOverride(t *testing.T) {
	policy := fastPolicy()
	sentinel := errors.New("flaky")
	policy.RetryIf = func(err error) bool { return errors.Is(err, sentinel) }
	r := NewBackoffRetryer(policy, zap.NewNop())

	calls := 0
	err := r.Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return sentinel
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetryer_ContextCancellation(t *testing.T) {
	policy := fastPolicy()
	policy.InitialDelay = 1 * time.Second
	policy.MaxDelay = 1 * time.Second
	r := NewBackoffRetryer(policy, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, func() error {
		return types.NewError(types.ErrUpstreamError, "down").WithRetryable(true)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryer_DelayCappedAtMax(t *testing.T) {
	r := &backoffRetryer{
		policy: &Policy{
			MaxRetries:   10,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     50 * time.Millisecond,
			Multiplier:   3.0,
		},
		logger: zap.NewNop(),
	}

	for attempt := 1; attempt <= 10; attempt++ {
		d := r.calculateDelay(attempt)
		assert.LessOrEqual(t, d, 50*time.Millisecond)
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
	}
}

func TestDoTyped(t *testing.T) {
	r := NewBackoffRetryer(fastPolicy(), zap.NewNop())

	calls := 0
	v, err := DoTyped[int](r, context.Background(), func() (int, error) {
		calls++
		if calls == 1 {
			return 0, types.NewError(types.ErrUpstreamError, "hiccup").WithRetryable(true)
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
