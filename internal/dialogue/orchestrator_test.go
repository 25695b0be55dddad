package dialogue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/callcenter-agent/internal/analytics"
	"github.com/capitalize-ai/callcenter-agent/internal/config"
	"github.com/capitalize-ai/callcenter-agent/internal/errs"
	"github.com/capitalize-ai/callcenter-agent/internal/model"
	"github.com/capitalize-ai/callcenter-agent/internal/optimizer"
	"github.com/capitalize-ai/callcenter-agent/pkg/logger"
)

type orchestratorFixture struct {
	orchestrator *Orchestrator
	manager      *Manager
	collector    *analytics.Collector
	provider     *mockLLM
	classifierLM *mockLLM
}

func newOrchestratorFixture(t *testing.T, classifierSteps, providerSteps []mockStep) *orchestratorFixture {
	t.Helper()

	manager := newTestManager(t)
	classifierLM := &mockLLM{steps: classifierSteps}
	provider := &mockLLM{steps: providerSteps}
	collector := analytics.NewCollector()

	opt := optimizer.New(optimizer.Config{
		CachingEnabled:    true,
		CacheTTL:          time.Hour,
		CostOptimization:  true,
		DefaultModel:      "gpt-4-1106-preview",
		FastModel:         "gpt-3.5-turbo-1106",
		MaxContextMessage: 10,
		ModelRates:        config.DefaultModelRates,
	})

	orch := NewOrchestrator(
		manager,
		NewClassifier(classifierLM, "gpt-4-1106-preview", logger.NewNop()),
		opt,
		collector,
		provider,
		nil,
		OrchestratorConfig{MaxTokens: 1000, Temperature: 0.7, LLMTimeout: time.Second},
		logger.NewNop(),
	)

	return &orchestratorFixture{
		orchestrator: orch,
		manager:      manager,
		collector:    collector,
		provider:     provider,
		classifierLM: classifierLM,
	}
}

func TestProcessTurnEndToEnd(t *testing.T) {
	f := newOrchestratorFixture(t,
		[]mockStep{respondWith(`{"type": "complaint", "confidence": 0.9, "reasoning": "refund"}`, 50, 20, "gpt-4-1106-preview")},
		[]mockStep{respondWith("I'm sorry to hear that. Let me look into your order.", 200, 80, "gpt-4-1106-preview")},
	)
	session := f.manager.CreateSession(context.Background(), "cust-1", "Ada", "", nil)

	result, err := f.orchestrator.ProcessTurn(context.Background(), session.ID, "my order never arrived", nil)
	require.NoError(t, err)

	assert.Equal(t, "I'm sorry to hear that. Let me look into your order.", result.Response)
	assert.Equal(t, model.IntentComplaint, result.Intent)
	assert.Equal(t, 0.9, result.Confidence)

	updated, err := f.manager.GetSession(session.ID)
	require.NoError(t, err)
	require.Len(t, updated.Messages, 2)
	assert.Equal(t, model.RoleUser, updated.Messages[0].Role)
	assert.Equal(t, model.RoleAssistant, updated.Messages[1].Role)
	require.NotNil(t, updated.Context.Intent)
	assert.Equal(t, model.IntentComplaint, *updated.Context.Intent)
	assert.Equal(t, 1, updated.Context.ResponseCount)

	a := f.collector.Analytics()
	assert.Equal(t, 1, a.TotalSessions)
	assert.Equal(t, 280, a.TotalTokensUsed)
	// 200 prompt tokens at 0.01/1K plus 80 completion at 0.03/1K
	assert.Equal(t, 0.0044, a.TotalCostUSD)
}

func TestProcessTurnSendsSystemPromptForIntent(t *testing.T) {
	f := newOrchestratorFixture(t,
		[]mockStep{respondWith(`{"type": "tech_support", "confidence": 0.95}`, 10, 5, "gpt-4-1106-preview")},
		[]mockStep{respondWith("Have you tried rebooting?", 100, 30, "gpt-3.5-turbo-1106")},
	)
	session := f.manager.CreateSession(context.Background(), "", "Ada", "", map[string]string{"device": "router"})

	_, err := f.orchestrator.ProcessTurn(context.Background(), session.ID, "my wifi keeps dropping", nil)
	require.NoError(t, err)

	require.Len(t, f.provider.requests, 1)
	prompt := f.provider.requests[0].Messages
	require.NotEmpty(t, prompt)
	assert.Equal(t, "system", prompt[0].Role)
	assert.Contains(t, prompt[0].Content, "technical support")
	assert.Contains(t, prompt[0].Content, "Ada")
	assert.Contains(t, prompt[0].Content, "router")
	assert.Equal(t, "my wifi keeps dropping", prompt[len(prompt)-1].Content)
}

func TestProcessTurnReusesStoredClassification(t *testing.T) {
	f := newOrchestratorFixture(t,
		[]mockStep{respondWith(`{"type": "sales", "confidence": 0.8}`, 10, 5, "gpt-4-1106-preview")},
		[]mockStep{
			respondWith("Our pro plan starts at $49.", 100, 40, "gpt-3.5-turbo-1106"),
			respondWith("Yes, annual billing gets a discount.", 120, 40, "gpt-3.5-turbo-1106"),
		},
	)
	session := f.manager.CreateSession(context.Background(), "", "", "", nil)

	_, err := f.orchestrator.ProcessTurn(context.Background(), session.ID, "how much is the pro plan?", nil)
	require.NoError(t, err)
	result, err := f.orchestrator.ProcessTurn(context.Background(), session.ID, "any discount for annual?", nil)
	require.NoError(t, err)

	assert.Equal(t, model.IntentSales, result.Intent)
	assert.Equal(t, 1, f.classifierLM.calls, "classification happens once per session")

	a := f.collector.Analytics()
	assert.Equal(t, 1, a.TotalSessions)
}

func TestProcessTurnServesCachedResponse(t *testing.T) {
	f := newOrchestratorFixture(t,
		[]mockStep{
			respondWith(`{"type": "general", "confidence": 0.6}`, 10, 5, "gpt-4-1106-preview"),
			respondWith(`{"type": "general", "confidence": 0.6}`, 10, 5, "gpt-4-1106-preview"),
		},
		[]mockStep{respondWith("We are open 9 to 5, Monday to Friday.", 80, 30, "gpt-3.5-turbo-1106")},
	)

	first := f.manager.CreateSession(context.Background(), "", "", "", nil)
	second := f.manager.CreateSession(context.Background(), "", "", "", nil)

	_, err := f.orchestrator.ProcessTurn(context.Background(), first.ID, "what are your opening hours?", nil)
	require.NoError(t, err)
	result, err := f.orchestrator.ProcessTurn(context.Background(), second.ID, "what are your opening hours?", nil)
	require.NoError(t, err)

	assert.Equal(t, "We are open 9 to 5, Monday to Friday.", result.Response)
	assert.Equal(t, 1, f.provider.calls, "identical prompt must be served from cache")

	updated, err := f.manager.GetSession(second.ID)
	require.NoError(t, err)
	assert.Len(t, updated.Messages, 2, "cache hits still append the assistant message")
}

func TestProcessTurnProviderFailureLeavesSessionOpen(t *testing.T) {
	f := newOrchestratorFixture(t,
		[]mockStep{respondWith(`{"type": "complaint", "confidence": 0.9}`, 10, 5, "gpt-4-1106-preview")},
		[]mockStep{failWith(errs.LLMRateLimit(errors.New("429")))},
	)
	session := f.manager.CreateSession(context.Background(), "", "", "", nil)

	_, err := f.orchestrator.ProcessTurn(context.Background(), session.ID, "my order never arrived", nil)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindLLMRateLimit))

	updated, getErr := f.manager.GetSession(session.ID)
	require.NoError(t, getErr)
	assert.Equal(t, model.StatusActive, updated.Status)
	assert.Len(t, updated.Messages, 1, "user message persists so the turn can be retried")
}

func TestProcessTurnUnknownSession(t *testing.T) {
	f := newOrchestratorFixture(t, nil, nil)

	_, err := f.orchestrator.ProcessTurn(context.Background(), "no-such-session", "hello", nil)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindSessionNotFound))
	assert.Zero(t, f.provider.calls)
	assert.Zero(t, f.classifierLM.calls)
}
