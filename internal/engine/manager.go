package engine

import (
	"sync"

	"github.com/google/uuid"
)

// Manager is the registry of live skill sessions. Each session's ledger,
// phase, and timers are owned exclusively by that session; the manager
// only tracks lifecycle.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*SkillSession
}

// NewManager creates an empty session registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[uuid.UUID]*SkillSession)}
}

// Add registers a session under its own ID.
func (m *Manager) Add(s *SkillSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Context().SessionID] = s
}

// Get returns the session with the given ID.
func (m *Manager) Get(id uuid.UUID) (*SkillSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove cancels any pending timers and drops the session. Used both for
// post-submission teardown and navigate-away abandonment.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Cancel()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
