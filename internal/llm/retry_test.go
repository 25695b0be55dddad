package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/callcenter-agent/internal/errs"
	"github.com/capitalize-ai/callcenter-agent/pkg/logger"
)

// scriptedClient returns the queued errors in order, then succeeds.
type scriptedClient struct {
	errors []error
	calls  int
}

func (c *scriptedClient) Complete(_ context.Context, _ *CompletionRequest) (*CompletionResponse, error) {
	c.calls++
	if len(c.errors) > 0 {
		err := c.errors[0]
		c.errors = c.errors[1:]
		return nil, err
	}
	return &CompletionResponse{Content: "ok"}, nil
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) Models() []string { return nil }

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetryRecoversFromTransientFailure(t *testing.T) {
	client := &scriptedClient{errors: []error{
		errs.LLMRateLimit(errors.New("429")),
	}}
	r := WithRetry(client, fastPolicy(3), logger.NewNop())

	resp, err := r.Complete(context.Background(), &CompletionRequest{Model: "gpt-4-1106-preview"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 2, client.calls)
}

func TestRetryDoesNotRetryPermanentFailure(t *testing.T) {
	permanent := errs.LLM("llm generation failed", errors.New("bad request"))
	client := &scriptedClient{errors: []error{permanent}}
	r := WithRetry(client, fastPolicy(3), logger.NewNop())

	_, err := r.Complete(context.Background(), &CompletionRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, client.calls)
	assert.True(t, errs.IsKind(err, errs.KindLLM))
}

func TestRetrySurfacesLastErrorWhenExhausted(t *testing.T) {
	client := &scriptedClient{errors: []error{
		errs.LLMRateLimit(errors.New("first")),
		errs.LLMTimeout(errors.New("second")),
		errs.LLMTimeout(errors.New("third")),
	}}
	r := WithRetry(client, fastPolicy(3), logger.NewNop())

	_, err := r.Complete(context.Background(), &CompletionRequest{})
	require.Error(t, err)
	assert.Equal(t, 3, client.calls)
	assert.True(t, errs.IsKind(err, errs.KindLLMTimeout))
	assert.Contains(t, err.Error(), "third")
}

func TestRetryStopsWhenContextCancelled(t *testing.T) {
	client := &scriptedClient{errors: []error{
		errs.LLMRateLimit(errors.New("429")),
		errs.LLMRateLimit(errors.New("429")),
	}}
	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Second}
	r := WithRetry(client, policy, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Complete(ctx, &CompletionRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, client.calls, "no further attempts after the context expires")
}

func TestRetryPolicyFloor(t *testing.T) {
	client := &scriptedClient{}
	r := WithRetry(client, RetryPolicy{MaxAttempts: 0}, logger.NewNop())

	_, err := r.Complete(context.Background(), &CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)
}
