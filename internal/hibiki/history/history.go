// Package history stores bounded per-user conversation history for the
// Hibiki engine.  Each user owns an ordered sequence of turns; the store
// evicts the oldest turns so the sequence never grows past its cap.
//
// The engine only ever talks to the Store interface, so the in-memory
// implementation can be swapped for the SQLite-backed one (or a future
// distributed store) without touching engine logic.
package history

import (
	"context"
	"database/sql"
	"time"
)

// DefaultMaxTurns is the per-user history cap when none is configured.
const DefaultMaxTurns = 10

// Turn is one user-message/bot-reply exchange.  Immutable once created.
type Turn struct {
	ID        string
	UserText  string
	BotText   string
	Timestamp time.Time
}

// Store persists and retrieves per-user conversation turns.
//
// Implementations must be safe for concurrent use and must enforce the
// eviction invariant themselves: after every Append the user's history
// holds at most the configured cap, oldest turns dropped first.
type Store interface {
	// Append records a turn for the user, evicting the oldest turns beyond
	// the cap.  The user's history is created lazily on first append.
	Append(ctx context.Context, userID string, turn Turn) error

	// Recent returns up to limit of the user's most recent turns, oldest
	// first.  limit <= 0 means no limit.  Returns nil for unknown users.
	Recent(ctx context.Context, userID string, limit int) ([]Turn, error)

	// Count returns the number of stored turns for the user (0 if absent).
	Count(ctx context.Context, userID string) (int, error)

	// Clear removes all history for the user.  Clearing an absent or
	// already-empty history is a no-op, not an error.
	Clear(ctx context.Context, userID string) error

	Close() error
}

// New returns a SQLite-backed store when a database connection is provided,
// otherwise an in-memory store.  maxTurns <= 0 selects DefaultMaxTurns.
func New(db *sql.DB, maxTurns int) Store {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if db == nil {
		return NewMemoryStore(maxTurns)
	}
	return NewSQLiteStore(db, maxTurns)
}
