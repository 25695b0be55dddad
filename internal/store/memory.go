// Package store provides the in-memory session store with TTL expiry.
package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/callcenter-agent/internal/model"
	"github.com/capitalize-ai/callcenter-agent/pkg/logger"
	"github.com/capitalize-ai/callcenter-agent/pkg/metrics"
)

// Memory is the in-memory session store. It is the single writer of
// record for sessions; callers write mutations back through Put.
// Expiry is evaluated lazily on every read in addition to the
// background sweep, so a reader never observes a stale session.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session

	sweepInterval time.Duration
	logger        *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMemory creates a store sweeping at the given interval.
func NewMemory(sweepInterval time.Duration, log *logger.Logger) *Memory {
	return &Memory{
		sessions:      make(map[string]*model.Session),
		sweepInterval: sweepInterval,
		logger:        log,
	}
}

// Put stores or replaces a session. Idempotent upsert.
func (m *Memory) Put(session *model.Session) {
	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	m.updateGauge()
}

// Get returns the session for id. An expired session is deleted and
// reported as absent rather than returned stale.
func (m *Memory) Get(id string) (*model.Session, bool) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if session.IsExpired(time.Now()) {
		m.Delete(id)
		return nil, false
	}

	return session, true
}

// Delete removes a session and reports whether it existed.
func (m *Memory) Delete(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	m.updateGauge()
	return ok
}

// Active returns all unexpired sessions, evicting expired entries as a
// side effect.
func (m *Memory) Active() map[string]*model.Session {
	now := time.Now()

	m.mu.RLock()
	active := make(map[string]*model.Session, len(m.sessions))
	var expired []string
	for id, session := range m.sessions {
		if session.IsExpired(now) {
			expired = append(expired, id)
		} else {
			active[id] = session
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		m.Delete(id)
	}

	return active
}

// Len returns the number of stored sessions, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartSweeper launches the background expiry sweep. The sweeper exits
// when ctx is cancelled or Close is called.
func (m *Memory) StartSweeper(ctx context.Context) {
	if m.cancel != nil {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.sweep(time.Now()); n > 0 {
					m.logger.Warn("cleaned up expired sessions", zap.Int("count", n))
				}
			}
		}
	}()
}

// Close stops the sweeper and waits for it to exit.
func (m *Memory) Close() {
	if m.cancel != nil {
		m.cancel()
		m.wg.Wait()
		m.cancel = nil
	}
}

// sweep deletes every expired session and returns how many it removed.
// Collecting ids under RLock first keeps the write lock short and
// leaves the map consistent even if the sweeper is cancelled mid-pass.
func (m *Memory) sweep(now time.Time) int {
	m.mu.RLock()
	var expired []string
	for id, session := range m.sessions {
		if session.IsExpired(now) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		m.Delete(id)
	}
	return len(expired)
}

func (m *Memory) updateGauge() {
	m.mu.RLock()
	n := len(m.sessions)
	m.mu.RUnlock()
	metrics.SessionsActive.Set(float64(n))
}
