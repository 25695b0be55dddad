package model

import "time"

// StartDialogueRequest starts a new dialogue session.
type StartDialogueRequest struct {
	CustomerID     string            `json:"customer_id,omitempty"`
	CustomerName   string            `json:"customer_name,omitempty"`
	InitialMessage string            `json:"initial_message"`
	Priority       Priority          `json:"priority,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// SendMessageRequest sends a user message into an existing session.
type SendMessageRequest struct {
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// FeedbackRequest records a satisfaction score for a session.
type FeedbackRequest struct {
	SatisfactionScore float64 `json:"satisfaction_score"`
}

// DialogueResponse is the reply to a processed user turn.
type DialogueResponse struct {
	SessionID      string  `json:"session_id"`
	Message        string  `json:"message"`
	Intent         Intent  `json:"request_type"`
	Confidence     float64 `json:"confidence"`
	ResponseTimeMs int64   `json:"response_time_ms"`
}

// SessionInfoResponse summarizes a session without its message bodies.
type SessionInfoResponse struct {
	SessionID    string  `json:"session_id"`
	Status       Status  `json:"status"`
	MessageCount int     `json:"message_count"`
	Intent       *Intent `json:"request_type,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// MessageHistoryResponse lists recent messages for a session.
type MessageHistoryResponse struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

// SessionEventType labels events on the session event feed.
type SessionEventType string

const (
	EventTurnProcessed SessionEventType = "turn_processed"
	EventSessionClosed SessionEventType = "session_closed"
	EventFeedback      SessionEventType = "feedback"
)

// SessionEvent is published to the event feed after state changes.
// Delivery is best effort.
type SessionEvent struct {
	Type       SessionEventType `json:"type"`
	SessionID  string           `json:"session_id"`
	Intent     *Intent          `json:"request_type,omitempty"`
	Status     Status           `json:"status,omitempty"`
	Tokens     int              `json:"tokens,omitempty"`
	CostUSD    float64          `json:"cost_usd,omitempty"`
	Score      float64          `json:"score,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
