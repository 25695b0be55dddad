// Package analytics collects per-session performance, cost and
// satisfaction samples and aggregates them into rolling analytics.
package analytics

import (
	"math"
	"sync"
	"time"

	"github.com/capitalize-ai/callcenter-agent/internal/model"
)

const (
	// analyticsWindow bounds which sessions count toward aggregates.
	analyticsWindow = 24 * time.Hour
	// retention bounds how long samples are kept at all.
	retention = 48 * time.Hour
	// highConfidence is the proxy threshold for "accurate" classification.
	highConfidence = 0.8

	hourKeyLayout = "2006-01-02-15"
)

// SessionSample is the metrics row for one session.
type SessionSample struct {
	SessionID     string
	Intent        *model.Intent
	ResponseTimes []int64
	TokensUsed    int
	TotalCost     float64
	Satisfaction  *float64
	Confidence    float64
	CreatedAt     time.Time
}

// HourlyStats aggregates activity for one hour bucket.
type HourlyStats struct {
	Sessions      int       `json:"sessions"`
	TotalTokens   int       `json:"total_tokens"`
	TotalCost     float64   `json:"total_cost"`
	ResponseTimes []int64   `json:"response_times"`
	Satisfactions []float64 `json:"satisfactions"`
}

// Analytics is the aggregate over the last 24 hours of samples.
type Analytics struct {
	TotalSessions          int                    `json:"total_sessions"`
	AvgResponseTimeMs      float64                `json:"avg_response_time_ms"`
	TotalTokensUsed        int                    `json:"total_tokens_used"`
	TotalCostUSD           float64                `json:"total_cost_usd"`
	AvgSatisfaction        *float64               `json:"avg_satisfaction,omitempty"`
	ClassificationAccuracy float64                `json:"classification_accuracy"`
	HourlyBreakdown        map[string]HourlyStats `json:"hourly_breakdown"`
}

// Collector tracks session samples and hourly buckets. All methods are
// safe for concurrent use; tracking against an unknown session id is a
// silent no-op so metrics never fail a caller.
type Collector struct {
	mu      sync.Mutex
	samples map[string]*SessionSample
	hourly  map[string]*HourlyStats

	now func() time.Time
}

// NewCollector creates a collector.
func NewCollector() *Collector {
	return &Collector{
		samples: make(map[string]*SessionSample),
		hourly:  make(map[string]*HourlyStats),
		now:     time.Now,
	}
}

// TrackSessionStart creates the sample row for a session on first
// classification.
func (c *Collector) TrackSessionStart(sessionID string, intent *model.Intent, confidence float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.samples[sessionID] = &SessionSample{
		SessionID:  sessionID,
		Intent:     intent,
		Confidence: confidence,
		CreatedAt:  c.now(),
	}
}

// TrackResponse records one generation: latency, tokens and cost on
// the session row and on the current hour bucket.
func (c *Collector) TrackResponse(sessionID string, responseTimeMs int64, tokens int, cost float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sample, ok := c.samples[sessionID]
	if !ok {
		return
	}

	sample.ResponseTimes = append(sample.ResponseTimes, responseTimeMs)
	sample.TokensUsed += tokens
	sample.TotalCost += cost

	bucket := c.bucket(c.now())
	bucket.Sessions++
	bucket.TotalTokens += tokens
	bucket.TotalCost += cost
	bucket.ResponseTimes = append(bucket.ResponseTimes, responseTimeMs)
}

// TrackSatisfaction records a user satisfaction score.
func (c *Collector) TrackSatisfaction(sessionID string, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sample, ok := c.samples[sessionID]
	if !ok {
		return
	}

	sample.Satisfaction = &score
	bucket := c.bucket(c.now())
	bucket.Satisfactions = append(bucket.Satisfactions, score)
}

// Analytics aggregates samples created within the last 24 hours.
// ClassificationAccuracy is a proxy: the fraction of sessions whose
// classification confidence exceeded 0.8, not ground-truth accuracy.
func (c *Collector) Analytics() Analytics {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var recent []*SessionSample
	for _, sample := range c.samples {
		if now.Sub(sample.CreatedAt) < analyticsWindow {
			recent = append(recent, sample)
		}
	}

	result := Analytics{HourlyBreakdown: c.copyHourly()}
	if len(recent) == 0 {
		result.HourlyBreakdown = map[string]HourlyStats{}
		return result
	}

	var allTimes []int64
	var allSatisfactions []float64
	highConfidenceCount := 0

	for _, sample := range recent {
		allTimes = append(allTimes, sample.ResponseTimes...)
		if sample.Satisfaction != nil {
			allSatisfactions = append(allSatisfactions, *sample.Satisfaction)
		}
		if sample.Confidence > highConfidence {
			highConfidenceCount++
		}
		result.TotalTokensUsed += sample.TokensUsed
		result.TotalCostUSD += sample.TotalCost
	}

	result.TotalSessions = len(recent)
	result.TotalCostUSD = math.Round(result.TotalCostUSD*1e4) / 1e4
	result.AvgResponseTimeMs = meanInt64(allTimes)
	result.ClassificationAccuracy = float64(highConfidenceCount) / float64(len(recent))
	if len(allSatisfactions) > 0 {
		avg := mean(allSatisfactions)
		result.AvgSatisfaction = &avg
	}

	return result
}

// CleanupOldMetrics drops samples older than the retention horizon.
// Meant to run periodically so memory stays bounded independent of
// session TTL.
func (c *Collector) CleanupOldMetrics() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-retention)
	removed := 0
	for id, sample := range c.samples {
		if sample.CreatedAt.Before(cutoff) {
			delete(c.samples, id)
			removed++
		}
	}
	return removed
}

// bucket returns the stats bucket for the hour containing t, creating
// it lazily. Caller must hold the lock.
func (c *Collector) bucket(t time.Time) *HourlyStats {
	key := t.Format(hourKeyLayout)
	bucket, ok := c.hourly[key]
	if !ok {
		bucket = &HourlyStats{}
		c.hourly[key] = bucket
	}
	return bucket
}

func (c *Collector) copyHourly() map[string]HourlyStats {
	out := make(map[string]HourlyStats, len(c.hourly))
	for key, bucket := range c.hourly {
		out[key] = *bucket
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanInt64(values []int64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum int64
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}
