// Package session tracks lightweight per-user session metadata for the
// dispatch shell: when the user first appeared, how many messages they have
// sent, and their display name.  Sessions live for the process lifetime and
// carry no conversational state — that belongs to the history store.
package session

import (
	"sync"
	"time"
)

// Session is a snapshot of one user's session metadata.
type Session struct {
	UserID      string
	DisplayName string
	StartedAt   time.Time
	Messages    int
}

// Manager tracks sessions keyed by user ID.  Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Start begins a fresh session for the user, replacing any existing one.
// Used by the /start command.
func (m *Manager) Start(userID, displayName string) Session {
	return m.startAt(userID, displayName, time.Now().UTC())
}

// startAt is the time-injectable core of Start (for testing).
func (m *Manager) startAt(userID, displayName string, now time.Time) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Session{
		UserID:      userID,
		DisplayName: displayName,
		StartedAt:   now,
	}
	m.sessions[userID] = s
	return *s
}

// Touch increments the user's message count, auto-initialising the session
// when the user messages without an explicit /start.  displayName is only
// applied when the session has none yet.  Returns a snapshot.
func (m *Manager) Touch(userID, displayName string) Session {
	return m.touchAt(userID, displayName, time.Now().UTC())
}

// touchAt is the time-injectable core of Touch (for testing).
func (m *Manager) touchAt(userID, displayName string, now time.Time) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[userID]
	if s == nil {
		s = &Session{
			UserID:      userID,
			DisplayName: displayName,
			StartedAt:   now,
		}
		m.sessions[userID] = s
	}
	if s.DisplayName == "" {
		s.DisplayName = displayName
	}
	s.Messages++
	return *s
}

// Get returns a snapshot of the user's session, if one exists.
func (m *Manager) Get(userID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[userID]
	if s == nil {
		return Session{}, false
	}
	return *s, true
}

// Len returns the number of active sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
