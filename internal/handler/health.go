package handler

import (
	"net/http"
)

// ConnChecker reports connectivity of an optional external dependency.
type ConnChecker interface {
	IsConnected() bool
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	eventFeed ConnChecker
}

// NewHealthHandler creates a new health handler. eventFeed may be nil
// when no event feed is configured.
func NewHealthHandler(eventFeed ConnChecker) *HealthHandler {
	return &HealthHandler{eventFeed: eventFeed}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.eventFeed != nil && !h.eventFeed.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "event feed not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
