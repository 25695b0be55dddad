// Package dialogue implements the session lifecycle manager, the
// intent classifier and the turn orchestrator.
package dialogue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/callcenter-agent/internal/errs"
	"github.com/capitalize-ai/callcenter-agent/internal/model"
	"github.com/capitalize-ai/callcenter-agent/internal/store"
	"github.com/capitalize-ai/callcenter-agent/pkg/logger"
	"github.com/capitalize-ai/callcenter-agent/pkg/metrics"
)

// ContextUpdate is an explicit session-context update. Known fields
// are set directly when non-nil; Extra keys land in the session data
// map.
type ContextUpdate struct {
	Intent           *model.Intent
	Confidence       *float64
	Priority         *model.Priority
	Satisfaction     *float64
	EscalationReason *string
	Extra            map[string]string
}

// Manager wraps the session store with lifecycle operations.
//
// Read-modify-write sequences (AddMessage, UpdateContext,
// RecordFeedback, CloseSession) run under a per-session mutex so two
// concurrent turns against the same session cannot lose updates.
// Operations on different session ids stay independent.
type Manager struct {
	store      *store.Memory
	defaultTTL time.Duration
	logger     *logger.Logger

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewManager creates a manager over the given store.
func NewManager(s *store.Memory, defaultTTL time.Duration, log *logger.Logger) *Manager {
	return &Manager{
		store:      s,
		defaultTTL: defaultTTL,
		logger:     log,
		locks:      make(map[string]*sync.Mutex),
	}
}

// sessionLock returns the mutex for a session id, creating it lazily.
// Lock entries are dropped when the session is deleted.
func (m *Manager) sessionLock(id string) *sync.Mutex {
	m.lockMu.Lock()
	defer m.lockMu.Unlock()

	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock
}

func (m *Manager) dropLock(id string) {
	m.lockMu.Lock()
	delete(m.locks, id)
	m.lockMu.Unlock()
}

// CreateSession creates a new active session with the default TTL and
// an optional seeded first user message.
func (m *Manager) CreateSession(ctx context.Context, customerID, customerName, initialMessage string, metadata map[string]string) *model.Session {
	sessionData := metadata
	if sessionData == nil {
		sessionData = make(map[string]string)
	}

	session := model.NewSession(model.Context{
		CustomerID:   customerID,
		CustomerName: customerName,
		SessionData:  sessionData,
	})

	expiresAt := time.Now().Add(m.defaultTTL)
	session.ExpiresAt = &expiresAt

	if initialMessage != "" {
		session.AddMessage(model.RoleUser, initialMessage, nil)
	}

	m.store.Put(session)
	metrics.SessionsTotal.Inc()

	m.logger.Info("created new dialogue session",
		zap.String("session_id", session.ID),
		zap.String("customer_id", customerID),
	)

	return session
}

// GetSession returns the session for id or a SessionNotFound error.
// Expiry is re-verified here even though the store already checks,
// since time may have advanced between calls.
func (m *Manager) GetSession(id string) (*model.Session, error) {
	session, ok := m.store.Get(id)
	if !ok {
		return nil, errs.SessionNotFound(id)
	}

	if session.IsExpired(time.Now()) {
		m.store.Delete(id)
		m.dropLock(id)
		return nil, errs.SessionNotFound(id)
	}

	return session, nil
}

// UpdateSession stamps the session and persists it.
func (m *Manager) UpdateSession(session *model.Session) {
	session.UpdatedAt = time.Now()
	m.store.Put(session)
}

// AddMessage appends a message to the session and persists it.
func (m *Manager) AddMessage(id string, role model.Role, content string, metadata map[string]string) (*model.Session, error) {
	lock := m.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.GetSession(id)
	if err != nil {
		return nil, err
	}

	session.AddMessage(role, content, metadata)
	m.UpdateSession(session)
	return session, nil
}

// UpdateContext applies an explicit context update to the session.
func (m *Manager) UpdateContext(id string, update ContextUpdate) (*model.Session, error) {
	lock := m.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.GetSession(id)
	if err != nil {
		return nil, err
	}

	if update.Intent != nil {
		session.Context.Intent = update.Intent
	}
	if update.Confidence != nil {
		session.Context.Confidence = *update.Confidence
	}
	if update.Priority != nil {
		session.Context.Priority = *update.Priority
	}
	if update.Satisfaction != nil {
		session.Context.Satisfaction = update.Satisfaction
	}
	if update.EscalationReason != nil {
		session.Context.EscalationReason = update.EscalationReason
	}
	for key, value := range update.Extra {
		session.Context.SessionData[key] = value
	}

	m.UpdateSession(session)
	return session, nil
}

// RecordFeedback stores a satisfaction score on the session. Feedback
// against a closed but unexpired session still succeeds; only TTL
// expiry makes a session unreadable.
func (m *Manager) RecordFeedback(id string, score float64) (*model.Session, error) {
	lock := m.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.GetSession(id)
	if err != nil {
		return nil, err
	}

	session.Context.Satisfaction = &score
	m.UpdateSession(session)
	return session, nil
}

// CloseSession moves the session to a terminal status. Transitions
// are forward-only: a session already closed stays in its terminal
// status.
func (m *Manager) CloseSession(id string, status model.Status) error {
	lock := m.sessionLock(id)
	lock.Lock()
	defer lock.Unlock()

	session, err := m.GetSession(id)
	if err != nil {
		return err
	}

	if !status.Terminal() {
		return errs.Validation("close requires a terminal status")
	}
	if session.Closed() {
		return errs.Validation("session already closed")
	}

	session.Status = status
	m.UpdateSession(session)

	m.logger.Info("closed dialogue session",
		zap.String("session_id", id),
		zap.String("status", string(status)),
	)
	return nil
}
