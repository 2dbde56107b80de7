package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Eyoab11/kuriftu/internal/push"
	"github.com/Eyoab11/kuriftu/internal/store"
)

// Manager hands out one Session per authenticated user.
type Manager struct {
	store  store.DataStore
	broker push.Broker
	opts   []Option

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager.
func NewManager(st store.DataStore, broker push.Broker, opts ...Option) *Manager {
	return &Manager{
		store:    st,
		broker:   broker,
		opts:     opts,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Get returns the user's session, creating it on first use.
func (m *Manager) Get(userID uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		s.Touch()
		return s
	}
	s := New(userID, m.store, m.broker, m.opts...)
	m.sessions[userID] = s
	return s
}

// ReapIdle closes and drops sessions with no activity for maxIdle.
// Everything a reaped session held is persisted, so the next request
// simply builds a fresh one. Returns the number of sessions released.
func (m *Manager) ReapIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			stale = append(stale, s)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.CloseChat()
	}
	return len(stale)
}

// Release closes the user's chat and drops the session.
func (m *Manager) Release(userID uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if ok {
		s.CloseChat()
	}
}
