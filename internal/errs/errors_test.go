package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{SessionNotFound("abc"), http.StatusNotFound},
		{LLMRateLimit(errors.New("429")), http.StatusTooManyRequests},
		{LLMTimeout(errors.New("deadline")), http.StatusGatewayTimeout},
		{Validation("bad score"), http.StatusBadRequest},
		{LLM("generation failed", errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.StatusCode(), "kind=%s", tc.err.Kind)
	}
}

func TestRetryableOnlyForTransientFailures(t *testing.T) {
	assert.True(t, LLMRateLimit(nil).Retryable())
	assert.True(t, LLMTimeout(nil).Retryable())
	assert.False(t, LLM("generation failed", nil).Retryable())
	assert.False(t, SessionNotFound("abc").Retryable())
	assert.False(t, Validation("bad").Retryable())
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := SessionNotFound("abc")
	wrapped := fmt.Errorf("processing turn: %w", inner)

	assert.Equal(t, KindSessionNotFound, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindSessionNotFound))
	assert.True(t, errors.Is(wrapped, &Error{Kind: KindSessionNotFound}))
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, IsKind(errors.New("plain"), KindLLM))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := LLM("llm generation failed", cause)

	assert.Equal(t, "llm generation failed: connection reset", err.Error())
	require.ErrorIs(t, err, cause)

	bare := Validation("satisfaction score must be between 1 and 5")
	assert.Equal(t, "satisfaction score must be between 1 and 5", bare.Error())
	assert.Nil(t, bare.Unwrap())
}
