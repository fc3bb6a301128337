package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps conversation history in process memory.  It is the
// default backend: history lives for the process lifetime and is lost on
// restart, which matches the engine's contract.
type MemoryStore struct {
	mu       sync.Mutex
	maxTurns int
	turns    map[string][]Turn
}

// NewMemoryStore creates a MemoryStore capping each user at maxTurns turns.
func NewMemoryStore(maxTurns int) *MemoryStore {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &MemoryStore{
		maxTurns: maxTurns,
		turns:    make(map[string][]Turn),
	}
}

// Append records a turn, dropping the oldest turns beyond the cap.
func (s *MemoryStore) Append(_ context.Context, userID string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	buf := append(s.turns[userID], turn)
	if excess := len(buf) - s.maxTurns; excess > 0 {
		buf = buf[excess:]
	}
	s.turns[userID] = buf
	return nil
}

// Recent returns a copy of up to limit most recent turns, oldest first.
func (s *MemoryStore) Recent(_ context.Context, userID string, limit int) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := s.turns[userID]
	if len(buf) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(buf) {
		limit = len(buf)
	}

	out := make([]Turn, limit)
	copy(out, buf[len(buf)-limit:])
	return out, nil
}

// Count returns the number of stored turns for the user.
func (s *MemoryStore) Count(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns[userID]), nil
}

// Clear removes the user's history entry entirely.
func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.turns, userID)
	return nil
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close() error { return nil }
