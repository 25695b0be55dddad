package handler

import (
	"net/http"

	"github.com/capitalize-ai/callcenter-agent/internal/analytics"
)

// AnalyticsHandler serves aggregated session analytics.
type AnalyticsHandler struct {
	collector *analytics.Collector
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(collector *analytics.Collector) *AnalyticsHandler {
	return &AnalyticsHandler{collector: collector}
}

// Get handles GET /api/v1/analytics
func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.collector.Analytics())
}
