// Package model defines data structures for the dialogue platform.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle status of a dialogue session.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusEscalated Status = "escalated"
	StatusTimedOut  Status = "timeout"
)

// Terminal reports whether the status closes the session. Transitions
// only move forward: a closed session is never reopened.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusEscalated || s == StatusTimedOut
}

// Context carries classification and customer state for one session.
// It is mutated only through the dialogue manager.
type Context struct {
	CustomerID   string            `json:"customer_id,omitempty"`
	CustomerName string            `json:"customer_name,omitempty"`
	Intent       *Intent           `json:"intent,omitempty"`
	Priority     Priority          `json:"priority"`
	SessionData  map[string]string `json:"session_data,omitempty"`

	// Confidence is the classification confidence in [0,1].
	Confidence float64 `json:"classification_confidence"`

	ResponseCount    int      `json:"response_count"`
	Satisfaction     *float64 `json:"satisfaction_score,omitempty"`
	EscalationReason *string  `json:"escalation_reason,omitempty"`
}

// Session is one bounded conversation between a user and the assistant.
type Session struct {
	ID        string     `json:"session_id"`
	Status    Status     `json:"status"`
	Messages  []Message  `json:"messages"`
	Context   Context    `json:"context"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// NewSession creates an active session with the given context.
func NewSession(ctx Context) *Session {
	now := time.Now()
	if ctx.Priority == "" {
		ctx.Priority = PriorityMedium
	}
	if ctx.SessionData == nil {
		ctx.SessionData = make(map[string]string)
	}
	return &Session{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Status:    StatusActive,
		Context:   ctx,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddMessage appends a message and stamps the session. Assistant
// messages bump the response count.
func (s *Session) AddMessage(role Role, content string, metadata map[string]string) Message {
	msg := NewMessage(role, content, metadata)
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = time.Now()

	if role == RoleAssistant {
		s.Context.ResponseCount++
	}
	return msg
}

// RecentMessages returns up to limit most recent messages in order.
func (s *Session) RecentMessages(limit int) []Message {
	if limit <= 0 || limit >= len(s.Messages) {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-limit:]
}

// IsExpired reports whether the session's TTL has elapsed at now.
// Sessions without an expiry never expire.
func (s *Session) IsExpired(now time.Time) bool {
	if s.ExpiresAt == nil {
		return false
	}
	return now.After(*s.ExpiresAt)
}

// Closed reports whether the session reached a terminal status.
func (s *Session) Closed() bool {
	return s.Status.Terminal()
}
