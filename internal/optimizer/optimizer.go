// Package optimizer provides response caching, model tier selection,
// context compression and cost accounting for dialogue turns.
package optimizer

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/capitalize-ai/callcenter-agent/internal/config"
	"github.com/capitalize-ai/callcenter-agent/internal/llm"
	"github.com/capitalize-ai/callcenter-agent/internal/model"
	"github.com/capitalize-ai/callcenter-agent/pkg/metrics"
)

// maxMessageChars bounds a single message body inside a compressed prompt.
const maxMessageChars = 500

// CachedResponse is one cached generation.
type CachedResponse struct {
	Content  string
	Tokens   int
	Cost     float64
	StoredAt time.Time
}

// Config holds the optimizer's policy knobs.
type Config struct {
	CachingEnabled    bool
	CacheTTL          time.Duration
	CostOptimization  bool
	DefaultModel      string
	FastModel         string
	MaxContextMessage int
	ModelRates        map[string]config.ModelRates
}

// Optimizer owns the response cache and the model rate table. It is
// never consulted for session truth.
type Optimizer struct {
	cfg Config

	mu    sync.Mutex
	cache map[string]CachedResponse
}

// New creates an optimizer.
func New(cfg Config) *Optimizer {
	if cfg.MaxContextMessage <= 0 {
		cfg.MaxContextMessage = 10
	}
	if cfg.ModelRates == nil {
		cfg.ModelRates = config.DefaultModelRates
	}
	return &Optimizer{
		cfg:   cfg,
		cache: make(map[string]CachedResponse),
	}
}

// CacheKey derives a deterministic key from the last 3 messages plus
// model and temperature. Identical recent context and parameters give
// an identical key.
func (o *Optimizer) CacheKey(messages []llm.ChatMessage, model string, temperature float64) string {
	recent := messages
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}

	payload := struct {
		Messages    []llm.ChatMessage `json:"messages"`
		Model       string            `json:"model"`
		Temperature float64           `json:"temperature"`
	}{recent, model, temperature}

	data, _ := json.Marshal(payload)
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Cached returns the cached response for key, or ok=false when caching
// is disabled, the key is absent, or the entry outlived the cache TTL.
// Stale entries are evicted on this check.
func (o *Optimizer) Cached(key string) (CachedResponse, bool) {
	if !o.cfg.CachingEnabled {
		return CachedResponse{}, false
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	entry, ok := o.cache[key]
	if !ok {
		metrics.RecordCacheLookup(false)
		return CachedResponse{}, false
	}

	if time.Since(entry.StoredAt) >= o.cfg.CacheTTL {
		delete(o.cache, key)
		metrics.RecordCacheLookup(false)
		return CachedResponse{}, false
	}

	metrics.RecordCacheLookup(true)
	return entry, true
}

// Cache stores a response. No-op when caching is disabled.
func (o *Optimizer) Cache(key, content string, tokens int, cost float64) {
	if !o.cfg.CachingEnabled {
		return
	}

	o.mu.Lock()
	o.cache[key] = CachedResponse{
		Content:  content,
		Tokens:   tokens,
		Cost:     cost,
		StoredAt: time.Now(),
	}
	o.mu.Unlock()
}

// SelectModel picks the model tier for a session. With cost
// optimization off it always returns the default model. General intent
// with no escalation takes the fast tier; high urgency or a long
// history takes the premium tier; everything else stays on the fast tier.
func (o *Optimizer) SelectModel(session *model.Session) string {
	if !o.cfg.CostOptimization {
		return o.cfg.DefaultModel
	}

	ctx := session.Context
	if ctx.Intent != nil && *ctx.Intent == model.IntentGeneral && ctx.EscalationReason == nil {
		return o.cfg.FastModel
	}

	if ctx.Priority == model.PriorityHigh || ctx.Priority == model.PriorityUrgent || len(session.Messages) > 10 {
		return o.cfg.DefaultModel
	}

	return o.cfg.FastModel
}

// CompressContext bounds the prompt: at most one leading system
// message, then the most recent non-system messages up to the
// configured limit, each body truncated at 500 characters.
func (o *Optimizer) CompressContext(messages []model.Message) []llm.ChatMessage {
	var compressed []llm.ChatMessage

	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			compressed = append(compressed, llm.ChatMessage{
				Role:    string(msg.Role),
				Content: msg.Content,
			})
			break
		}
	}

	recent := messages
	if len(recent) > o.cfg.MaxContextMessage {
		recent = recent[len(recent)-o.cfg.MaxContextMessage:]
	}
	for _, msg := range recent {
		if msg.Role == model.RoleSystem {
			continue
		}
		content := msg.Content
		if len(content) > maxMessageChars {
			content = content[:maxMessageChars] + "..."
		}
		compressed = append(compressed, llm.ChatMessage{
			Role:    string(msg.Role),
			Content: content,
		})
	}

	return compressed
}

// EstimateCost computes the exact USD cost of a completion from token
// counts, rounded to 6 decimal places. Unknown models are billed at
// the fast-tier rates.
func (o *Optimizer) EstimateCost(promptTokens, completionTokens int, modelID string) float64 {
	rates, ok := o.cfg.ModelRates[modelID]
	if !ok {
		rates = o.cfg.ModelRates[o.cfg.FastModel]
	}

	inputCost := float64(promptTokens) / 1000 * rates.Input
	outputCost := float64(completionTokens) / 1000 * rates.Output

	return round6(inputCost + outputCost)
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
