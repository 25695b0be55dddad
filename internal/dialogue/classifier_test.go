package dialogue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/callcenter-agent/internal/errs"
	"github.com/capitalize-ai/callcenter-agent/internal/model"
	"github.com/capitalize-ai/callcenter-agent/pkg/logger"
)

func newTestClassifier(client *mockLLM) *Classifier {
	return NewClassifier(client, "gpt-4-1106-preview", logger.NewNop())
}

func TestClassifyParsesProviderReply(t *testing.T) {
	client := &mockLLM{steps: []mockStep{
		respondWith(`{"type": "complaint", "confidence": 0.9, "reasoning": "refund request"}`, 50, 20, "gpt-4-1106-preview"),
	}}

	intent, confidence := newTestClassifier(client).Classify(context.Background(), "my order never arrived")
	assert.Equal(t, model.IntentComplaint, intent)
	assert.Equal(t, 0.9, confidence)

	require.Len(t, client.requests, 1)
	assert.Equal(t, 0.3, client.requests[0].Temperature)
	assert.Equal(t, 150, client.requests[0].MaxTokens)
}

func TestClassifyDegradesOnMalformedReply(t *testing.T) {
	for _, content := range []string{
		"",
		"not json at all",
		`{"type": "complaint"`,
		`{"confidence": 0.9}`,
	} {
		client := &mockLLM{steps: []mockStep{
			respondWith(content, 10, 5, "gpt-4-1106-preview"),
		}}

		intent, confidence := newTestClassifier(client).Classify(context.Background(), "hello")
		assert.Equal(t, model.IntentGeneral, intent, "content=%q", content)
		assert.Equal(t, 0.5, confidence, "content=%q", content)
	}
}

func TestClassifyDegradesOnUnknownCategory(t *testing.T) {
	client := &mockLLM{steps: []mockStep{
		respondWith(`{"type": "billing", "confidence": 0.95}`, 10, 5, "gpt-4-1106-preview"),
	}}

	intent, confidence := newTestClassifier(client).Classify(context.Background(), "hello")
	assert.Equal(t, model.IntentGeneral, intent)
	assert.Equal(t, 0.5, confidence)
}

func TestClassifyDegradesOnProviderError(t *testing.T) {
	client := &mockLLM{steps: []mockStep{
		failWith(errs.LLM("llm generation failed", errors.New("boom"))),
	}}

	intent, confidence := newTestClassifier(client).Classify(context.Background(), "hello")
	assert.Equal(t, model.IntentGeneral, intent)
	assert.Equal(t, 0.5, confidence)
}

func TestClassifyNormalizesOutOfRangeConfidence(t *testing.T) {
	client := &mockLLM{steps: []mockStep{
		respondWith(`{"type": "sales", "confidence": 7.5}`, 10, 5, "gpt-4-1106-preview"),
	}}

	intent, confidence := newTestClassifier(client).Classify(context.Background(), "how much is the pro plan?")
	assert.Equal(t, model.IntentSales, intent)
	assert.Equal(t, 0.5, confidence)
}
