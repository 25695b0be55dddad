package model

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMessageIsAppendOnly(t *testing.T) {
	s := NewSession(Context{})

	const n = 5
	for i := 0; i < n; i++ {
		s.AddMessage(RoleUser, fmt.Sprintf("message %d", i), nil)
	}

	require.Len(t, s.Messages, n)
	for i, msg := range s.Messages {
		assert.Equal(t, fmt.Sprintf("message %d", i), msg.Content)
	}
}

func TestAddMessageBumpsResponseCountForAssistantOnly(t *testing.T) {
	s := NewSession(Context{})

	s.AddMessage(RoleUser, "hi", nil)
	assert.Equal(t, 0, s.Context.ResponseCount)

	s.AddMessage(RoleAssistant, "hello", nil)
	s.AddMessage(RoleAssistant, "anything else?", nil)
	assert.Equal(t, 2, s.Context.ResponseCount)
}

func TestAddMessageStampsUpdatedAt(t *testing.T) {
	s := NewSession(Context{})
	before := s.UpdatedAt

	time.Sleep(time.Millisecond)
	s.AddMessage(RoleUser, "hi", nil)

	assert.True(t, s.UpdatedAt.After(before))
	assert.False(t, s.UpdatedAt.Before(s.CreatedAt))
}

func TestRecentMessages(t *testing.T) {
	s := NewSession(Context{})
	for i := 0; i < 6; i++ {
		s.AddMessage(RoleUser, fmt.Sprintf("m%d", i), nil)
	}

	recent := s.RecentMessages(3)
	require.Len(t, recent, 3)
	assert.Equal(t, "m3", recent[0].Content)
	assert.Equal(t, "m5", recent[2].Content)

	assert.Len(t, s.RecentMessages(100), 6)
	assert.Len(t, s.RecentMessages(0), 6)
}

func TestIsExpired(t *testing.T) {
	s := NewSession(Context{})
	assert.False(t, s.IsExpired(time.Now()), "no expiry set means never expired")

	past := time.Now().Add(-time.Minute)
	s.ExpiresAt = &past
	assert.True(t, s.IsExpired(time.Now()))

	future := time.Now().Add(time.Minute)
	s.ExpiresAt = &future
	assert.False(t, s.IsExpired(time.Now()))
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusActive.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusEscalated.Terminal())
	assert.True(t, StatusTimedOut.Terminal())
}

func TestNewSessionDefaults(t *testing.T) {
	s := NewSession(Context{})
	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, PriorityMedium, s.Context.Priority)
	assert.NotNil(t, s.Context.SessionData)
	assert.NotEmpty(t, s.ID)
	assert.Zero(t, s.Context.Confidence)
}

func TestParseIntent(t *testing.T) {
	for _, valid := range []string{"tech_support", "sales", "complaint", "general"} {
		intent, err := ParseIntent(valid)
		require.NoError(t, err)
		assert.Equal(t, Intent(valid), intent)
	}

	_, err := ParseIntent("billing")
	assert.Error(t, err)
}
