package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	e := NewError(ErrRateLimited, "too many requests")
	assert.Equal(t, "[RATE_LIMITED] too many requests", e.Error())

	cause := errors.New("429 from upstream")
	e = e.WithCause(cause)
	assert.Contains(t, e.Error(), "429 from upstream")
	assert.Equal(t, cause, errors.Unwrap(e))
}

func TestError_Builders(t *testing.T) {
	e := NewError(ErrUpstreamError, "bad gateway").
		WithRetryable(true).
		WithProvider("openai")

	assert.True(t, e.Retryable)
	assert.Equal(t, "openai", e.Provider)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(NewError(ErrInvalidRequest, "bad")))
	assert.True(t, IsRetryable(NewError(ErrUpstreamTimeout, "slow").WithRetryable(true)))

	// Wrapped errors are still recognized.
	wrapped := fmt.Errorf("call failed: %w", NewError(ErrRateLimited, "limit").WithRetryable(true))
	assert.True(t, IsRetryable(wrapped))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("plain")))

	err := fmt.Errorf("outer: %w", NewError(ErrSchema, "field bad"))
	require.Equal(t, ErrSchema, GetErrorCode(err))
	assert.True(t, IsErrorCode(err, ErrSchema))
	assert.False(t, IsErrorCode(err, ErrParse))
}
