package dialogue

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/callcenter-agent/internal/analytics"
	"github.com/capitalize-ai/callcenter-agent/internal/events"
	"github.com/capitalize-ai/callcenter-agent/internal/llm"
	"github.com/capitalize-ai/callcenter-agent/internal/model"
	"github.com/capitalize-ai/callcenter-agent/internal/optimizer"
	"github.com/capitalize-ai/callcenter-agent/pkg/logger"
	"github.com/capitalize-ai/callcenter-agent/pkg/metrics"
)

// TurnResult is the outcome of one processed user turn.
type TurnResult struct {
	Response   string
	Intent     model.Intent
	Confidence float64
	LatencyMs  int64
}

// Orchestrator is the top-level use-case controller: it composes the
// manager, classifier, optimizer, metrics collector and the provider
// to process one user turn end to end.
type Orchestrator struct {
	manager    *Manager
	classifier *Classifier
	optimizer  *optimizer.Optimizer
	collector  *analytics.Collector
	client     llm.Client
	publisher  events.Publisher
	logger     *logger.Logger

	maxTokens   int
	temperature float64
	llmTimeout  time.Duration
}

// OrchestratorConfig carries generation parameters.
type OrchestratorConfig struct {
	MaxTokens   int
	Temperature float64
	LLMTimeout  time.Duration
}

// NewOrchestrator wires the orchestrator. The client should already be
// wrapped with the retry policy.
func NewOrchestrator(
	manager *Manager,
	classifier *Classifier,
	opt *optimizer.Optimizer,
	collector *analytics.Collector,
	client llm.Client,
	publisher events.Publisher,
	cfg OrchestratorConfig,
	log *logger.Logger,
) *Orchestrator {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Orchestrator{
		manager:     manager,
		classifier:  classifier,
		optimizer:   opt,
		collector:   collector,
		client:      client,
		publisher:   publisher,
		logger:      log,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		llmTimeout:  cfg.LLMTimeout,
	}
}

// ProcessTurn handles one user message: session fetch, classification,
// prompt assembly, generation (or cache hit), accounting. Provider
// failures propagate typed after retries; the session stays open so
// the caller can retry the turn.
func (o *Orchestrator) ProcessTurn(ctx context.Context, sessionID, userText string, metadata map[string]string) (*TurnResult, error) {
	start := time.Now()

	session, err := o.manager.AddMessage(sessionID, model.RoleUser, userText, metadata)
	if err != nil {
		return nil, err
	}

	intent, confidence, err := o.ensureClassified(ctx, session, userText)
	if err != nil {
		return nil, err
	}

	response, tokens, cost, modelID, err := o.generate(ctx, session)
	if err != nil {
		metrics.RecordTurn(string(intent), "error", time.Since(start).Seconds())
		return nil, err
	}

	if _, err := o.manager.AddMessage(sessionID, model.RoleAssistant, response, nil); err != nil {
		return nil, err
	}

	latencyMs := time.Since(start).Milliseconds()
	o.collector.TrackResponse(sessionID, latencyMs, tokens, cost)
	metrics.RecordTurn(string(intent), "success", time.Since(start).Seconds())

	o.publisher.PublishTurn(ctx, model.SessionEvent{
		Type:       model.EventTurnProcessed,
		SessionID:  sessionID,
		Intent:     &intent,
		Tokens:     tokens,
		CostUSD:    cost,
		OccurredAt: time.Now(),
	})

	o.logger.Info("turn processed",
		zap.String("session_id", sessionID),
		zap.String("intent", string(intent)),
		zap.String("model", modelID),
		zap.Int64("response_time_ms", latencyMs),
	)

	return &TurnResult{
		Response:   response,
		Intent:     intent,
		Confidence: confidence,
		LatencyMs:  latencyMs,
	}, nil
}

// ensureClassified classifies the session on its first turn and
// persists the result; later turns reuse the stored classification.
func (o *Orchestrator) ensureClassified(ctx context.Context, session *model.Session, userText string) (model.Intent, float64, error) {
	if session.Context.Intent != nil {
		return *session.Context.Intent, session.Context.Confidence, nil
	}

	intent, confidence := o.classifier.Classify(ctx, userText)

	if _, err := o.manager.UpdateContext(session.ID, ContextUpdate{
		Intent:     &intent,
		Confidence: &confidence,
	}); err != nil {
		return "", 0, err
	}

	o.collector.TrackSessionStart(session.ID, &intent, confidence)
	return intent, confidence, nil
}

// generate produces the assistant response for the session, consulting
// the response cache before invoking the provider.
func (o *Orchestrator) generate(ctx context.Context, session *model.Session) (content string, tokens int, cost float64, modelID string, err error) {
	modelID = o.optimizer.SelectModel(session)

	prompt := []llm.ChatMessage{{
		Role:    string(model.RoleSystem),
		Content: systemPrompt(session.Context.Intent) + contextPrompt(session.Context.CustomerName, session.Context.SessionData),
	}}
	prompt = append(prompt, o.optimizer.CompressContext(session.Messages)...)

	key := o.optimizer.CacheKey(prompt, modelID, o.temperature)
	if cached, ok := o.optimizer.Cached(key); ok {
		o.logger.Debug("response cache hit", zap.String("session_id", session.ID))
		return cached.Content, cached.Tokens, cached.Cost, modelID, nil
	}

	callCtx := ctx
	if o.llmTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.llmTimeout)
		defer cancel()
	}

	resp, err := o.client.Complete(callCtx, &llm.CompletionRequest{
		Model:       modelID,
		Messages:    prompt,
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	})
	if err != nil {
		return "", 0, 0, modelID, err
	}

	resolved := resp.Model
	if resolved == "" {
		resolved = modelID
	}

	cost = o.optimizer.EstimateCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resolved)
	tokens = resp.Usage.TotalTokens

	metrics.RecordLLMUsage(resolved, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, cost)
	o.optimizer.Cache(key, resp.Content, tokens, cost)

	return resp.Content, tokens, cost, resolved, nil
}
