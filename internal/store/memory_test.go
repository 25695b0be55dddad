package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/callcenter-agent/internal/model"
	"github.com/capitalize-ai/callcenter-agent/pkg/logger"
)

func newTestStore(t *testing.T) *Memory {
	t.Helper()
	return NewMemory(10*time.Millisecond, logger.NewNop())
}

func sessionExpiringAt(t time.Time) *model.Session {
	s := model.NewSession(model.Context{})
	s.ExpiresAt = &t
	return s
}

func TestGetReturnsStoredSession(t *testing.T) {
	s := newTestStore(t)
	session := model.NewSession(model.Context{CustomerID: "cust-1"})
	s.Put(session)

	got, ok := s.Get(session.ID)
	require.True(t, ok)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, "cust-1", got.Context.CustomerID)
}

func TestGetExpiredSessionDeletesEntry(t *testing.T) {
	s := newTestStore(t)
	session := sessionExpiringAt(time.Now().Add(-time.Second))
	s.Put(session)

	_, ok := s.Get(session.ID)
	assert.False(t, ok)

	// the expired entry must not leak
	assert.Equal(t, 0, s.Len())
}

func TestGetUnexpiredSessionSurvives(t *testing.T) {
	s := newTestStore(t)
	session := sessionExpiringAt(time.Now().Add(time.Hour))
	s.Put(session)

	_, ok := s.Get(session.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	session := model.NewSession(model.Context{})
	s.Put(session)

	assert.True(t, s.Delete(session.ID))
	assert.False(t, s.Delete(session.ID))
}

func TestActiveEvictsExpired(t *testing.T) {
	s := newTestStore(t)
	live := sessionExpiringAt(time.Now().Add(time.Hour))
	dead := sessionExpiringAt(time.Now().Add(-time.Hour))
	s.Put(live)
	s.Put(dead)

	active := s.Active()
	require.Len(t, active, 1)
	assert.Contains(t, active, live.ID)
	assert.Equal(t, 1, s.Len())
}

func TestPutIsIdempotentUpsert(t *testing.T) {
	s := newTestStore(t)
	session := model.NewSession(model.Context{})
	s.Put(session)
	session.AddMessage(model.RoleUser, "hello", nil)
	s.Put(session)

	got, ok := s.Get(session.ID)
	require.True(t, ok)
	assert.Len(t, got.Messages, 1)
	assert.Equal(t, 1, s.Len())
}

func TestSweeperRemovesExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	dead := sessionExpiringAt(time.Now().Add(-time.Minute))
	live := sessionExpiringAt(time.Now().Add(time.Hour))
	s.Put(dead)
	s.Put(live)

	s.StartSweeper(context.Background())
	defer s.Close()

	assert.Eventually(t, func() bool {
		return s.Len() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCloseStopsSweeperWithoutDeadlock(t *testing.T) {
	s := newTestStore(t)
	s.StartSweeper(context.Background())

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return; sweeper likely deadlocked")
	}

	// the store stays usable after shutdown
	session := model.NewSession(model.Context{})
	s.Put(session)
	_, ok := s.Get(session.ID)
	assert.True(t, ok)
}

func TestCloseWithoutStartIsSafe(t *testing.T) {
	s := newTestStore(t)
	s.Close()
}
