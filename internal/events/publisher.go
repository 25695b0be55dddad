// Package events publishes session lifecycle events to an external
// feed. Delivery is fire-and-forget: publish failures are logged and
// never propagated to the dialogue core.
package events

import (
	"context"

	"github.com/capitalize-ai/callcenter-agent/internal/model"
)

// Publisher emits session events for external consumers.
type Publisher interface {
	PublishTurn(ctx context.Context, event model.SessionEvent)
	PublishSessionClosed(ctx context.Context, event model.SessionEvent)
	PublishFeedback(ctx context.Context, event model.SessionEvent)
}

// Noop discards all events; used when no event feed is configured.
type Noop struct{}

func (Noop) PublishTurn(context.Context, model.SessionEvent)          {}
func (Noop) PublishSessionClosed(context.Context, model.SessionEvent) {}
func (Noop) PublishFeedback(context.Context, model.SessionEvent)      {}
