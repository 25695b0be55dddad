// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/callcenter-agent/internal/analytics"
	"github.com/capitalize-ai/callcenter-agent/internal/dialogue"
	"github.com/capitalize-ai/callcenter-agent/internal/events"
	"github.com/capitalize-ai/callcenter-agent/internal/middleware"
	"github.com/capitalize-ai/callcenter-agent/internal/model"
	"github.com/capitalize-ai/callcenter-agent/pkg/logger"
)

// DialogueHandler handles dialogue endpoints.
type DialogueHandler struct {
	manager      *dialogue.Manager
	orchestrator *dialogue.Orchestrator
	collector    *analytics.Collector
	publisher    events.Publisher
	logger       *logger.Logger
}

// NewDialogueHandler creates a new dialogue handler.
func NewDialogueHandler(
	manager *dialogue.Manager,
	orchestrator *dialogue.Orchestrator,
	collector *analytics.Collector,
	publisher events.Publisher,
	log *logger.Logger,
) *DialogueHandler {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &DialogueHandler{
		manager:      manager,
		orchestrator: orchestrator,
		collector:    collector,
		publisher:    publisher,
		logger:       log,
	}
}

// Start handles POST /api/v1/dialogue/start
func (h *DialogueHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.StartDialogueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.InitialMessage); err != nil {
		writeAppError(w, err)
		return
	}

	// The initial message is appended by ProcessTurn, not seeded at
	// creation, so the first turn leaves exactly one user and one
	// assistant message.
	session := h.manager.CreateSession(ctx, req.CustomerID, req.CustomerName, "", req.Metadata)

	if req.Priority != "" {
		priority := req.Priority
		if _, err := h.manager.UpdateContext(session.ID, dialogue.ContextUpdate{Priority: &priority}); err != nil {
			writeAppError(w, err)
			return
		}
	}

	result, err := h.orchestrator.ProcessTurn(ctx, session.ID, req.InitialMessage, req.Metadata)
	if err != nil {
		h.logger.Error("failed to start dialogue", zap.Error(err))
		writeAppError(w, err)
		return
	}

	h.logger.Info("dialogue started",
		zap.String("session_id", session.ID),
		zap.String("customer_id", req.CustomerID),
		zap.String("intent", string(result.Intent)),
	)

	writeJSON(w, http.StatusCreated, model.DialogueResponse{
		SessionID:      session.ID,
		Message:        result.Response,
		Intent:         result.Intent,
		Confidence:     result.Confidence,
		ResponseTimeMs: result.LatencyMs,
	})
}

// SendMessage handles POST /api/v1/dialogue/{id}/message
func (h *DialogueHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeAppError(w, err)
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeAppError(w, err)
		return
	}

	result, err := h.orchestrator.ProcessTurn(ctx, sessionID, req.Message, req.Metadata)
	if err != nil {
		h.logger.Error("failed to process message",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.DialogueResponse{
		SessionID:      sessionID,
		Message:        result.Response,
		Intent:         result.Intent,
		Confidence:     result.Confidence,
		ResponseTimeMs: result.LatencyMs,
	})
}

// Feedback handles POST /api/v1/dialogue/{id}/feedback
func (h *DialogueHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeAppError(w, err)
		return
	}

	var req model.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateSatisfactionScore(req.SatisfactionScore); err != nil {
		writeAppError(w, err)
		return
	}

	if _, err := h.manager.RecordFeedback(sessionID, req.SatisfactionScore); err != nil {
		writeAppError(w, err)
		return
	}

	h.collector.TrackSatisfaction(sessionID, req.SatisfactionScore)
	h.publisher.PublishFeedback(r.Context(), model.SessionEvent{
		Type:       model.EventFeedback,
		SessionID:  sessionID,
		Score:      req.SatisfactionScore,
		OccurredAt: time.Now(),
	})

	h.logger.Info("feedback added",
		zap.String("session_id", sessionID),
		zap.Float64("score", req.SatisfactionScore),
	)

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Feedback recorded successfully",
	})
}

// GetSession handles GET /api/v1/dialogue/{id}
func (h *DialogueHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeAppError(w, err)
		return
	}

	session, err := h.manager.GetSession(sessionID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.SessionInfoResponse{
		SessionID:    session.ID,
		Status:       session.Status,
		MessageCount: len(session.Messages),
		Intent:       session.Context.Intent,
		CreatedAt:    session.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    session.UpdatedAt.Format(time.RFC3339),
	})
}

// GetMessages handles GET /api/v1/dialogue/{id}/messages
func (h *DialogueHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeAppError(w, err)
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	session, err := h.manager.GetSession(sessionID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageHistoryResponse{
		SessionID: sessionID,
		Messages:  session.RecentMessages(limit),
	})
}

// Close handles DELETE /api/v1/dialogue/{id}
func (h *DialogueHandler) Close(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeAppError(w, err)
		return
	}

	if err := h.manager.CloseSession(sessionID, model.StatusCompleted); err != nil {
		writeAppError(w, err)
		return
	}

	h.publisher.PublishSessionClosed(r.Context(), model.SessionEvent{
		Type:       model.EventSessionClosed,
		SessionID:  sessionID,
		Status:     model.StatusCompleted,
		OccurredAt: time.Now(),
	})

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Dialogue session closed successfully",
	})
}
