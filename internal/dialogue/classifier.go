package dialogue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/capitalize-ai/callcenter-agent/internal/llm"
	"github.com/capitalize-ai/callcenter-agent/internal/model"
	"github.com/capitalize-ai/callcenter-agent/pkg/logger"
	"github.com/capitalize-ai/callcenter-agent/pkg/metrics"
)

const classificationPrompt = `Analyze the user message and classify it into one of these categories:
- tech_support: Technical issues, bugs, how-to questions
- sales: Product inquiries, pricing, purchase intent
- complaint: Complaints, refunds, dissatisfaction
- general: General questions, greetings, unclear intent

Respond in JSON format: {"type": "category", "confidence": 0.0-1.0, "reasoning": "explanation"}`

// Fallback classification when the provider reply is unusable.
const (
	fallbackConfidence = 0.5
)

// Classifier maps free-text user input onto the closed intent taxonomy.
type Classifier struct {
	client llm.Client
	model  string
	logger *logger.Logger
}

// NewClassifier creates a classifier using the given provider and model.
func NewClassifier(client llm.Client, modelID string, log *logger.Logger) *Classifier {
	return &Classifier{client: client, model: modelID, logger: log}
}

type classification struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classify returns the intent and confidence for a user message.
// Classification never fails the caller: any provider error, parse
// failure or unknown category degrades to (general, 0.5) so the turn
// still gets routed.
func (c *Classifier) Classify(ctx context.Context, message string) (model.Intent, float64) {
	resp, err := c.client.Complete(ctx, &llm.CompletionRequest{
		Model: c.model,
		Messages: []llm.ChatMessage{
			{Role: "system", Content: classificationPrompt},
			{Role: "user", Content: fmt.Sprintf("Classify this message: %s", message)},
		},
		Temperature: 0.3,
		MaxTokens:   150,
	})
	if err != nil {
		c.logger.Error("classification failed", zap.Error(err))
		return c.fallback()
	}

	var parsed classification
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		c.logger.Warn("failed to parse classification response", zap.Error(err))
		return c.fallback()
	}

	intent, err := model.ParseIntent(parsed.Type)
	if err != nil {
		c.logger.Warn("unknown classification category", zap.String("type", parsed.Type))
		return c.fallback()
	}

	confidence := parsed.Confidence
	if confidence < 0 || confidence > 1 {
		confidence = fallbackConfidence
	}

	c.logger.Info("message classified",
		zap.String("intent", string(intent)),
		zap.Float64("confidence", confidence),
		zap.String("reasoning", parsed.Reasoning),
	)
	metrics.ClassificationsTotal.WithLabelValues(string(intent)).Inc()

	return intent, confidence
}

func (c *Classifier) fallback() (model.Intent, float64) {
	metrics.ClassificationsTotal.WithLabelValues(string(model.IntentGeneral)).Inc()
	return model.IntentGeneral, fallbackConfidence
}
