package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLiteStore persists conversation history in the history_turns table so
// multi-turn context survives process restarts.  The connection is owned by
// the enclosing store; Close here is a no-op.
type SQLiteStore struct {
	db       *sql.DB
	maxTurns int
}

// NewSQLiteStore creates a SQLiteStore capping each user at maxTurns turns.
// The history_turns migration must have been applied to db.
func NewSQLiteStore(db *sql.DB, maxTurns int) *SQLiteStore {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &SQLiteStore{db: db, maxTurns: maxTurns}
}

// Append inserts the turn and prunes the user's oldest rows beyond the cap
// inside a single transaction, so readers never observe an over-cap history.
func (s *SQLiteStore) Append(ctx context.Context, userID string, turn Turn) error {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin append: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO history_turns (id, user_id, user_text, bot_text, ts)
		VALUES (?, ?, ?, ?, ?)
	`, turn.ID, userID, turn.UserText, turn.BotText, turn.Timestamp)
	if err != nil {
		return fmt.Errorf("history: insert turn: %w", err)
	}

	// Evict everything outside the newest maxTurns rows.  rowid breaks ties
	// between turns recorded within the same timestamp granularity.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM history_turns
		WHERE user_id = ?
		  AND id NOT IN (
			SELECT id FROM history_turns
			WHERE user_id = ?
			ORDER BY ts DESC, rowid DESC
			LIMIT ?
		  )
	`, userID, userID, s.maxTurns)
	if err != nil {
		return fmt.Errorf("history: evict old turns: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit append: %w", err)
	}
	return nil
}

// Recent returns up to limit most recent turns, oldest first.
func (s *SQLiteStore) Recent(ctx context.Context, userID string, limit int) ([]Turn, error) {
	if limit <= 0 || limit > s.maxTurns {
		limit = s.maxTurns
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_text, bot_text, ts
		FROM history_turns
		WHERE user_id = ?
		ORDER BY ts DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query turns: %w", err)
	}
	defer rows.Close()

	var newestFirst []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.UserText, &t.BotText, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("history: scan turn: %w", err)
		}
		newestFirst = append(newestFirst, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate turns: %w", err)
	}

	// Reverse into oldest-first order for prompt assembly.
	out := make([]Turn, len(newestFirst))
	for i, t := range newestFirst {
		out[len(out)-1-i] = t
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// Count returns the number of stored turns for the user.
func (s *SQLiteStore) Count(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM history_turns WHERE user_id = ?`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("history: count turns: %w", err)
	}
	return n, nil
}

// Clear removes all turns for the user.
func (s *SQLiteStore) Clear(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM history_turns WHERE user_id = ?`, userID,
	); err != nil {
		return fmt.Errorf("history: clear turns: %w", err)
	}
	return nil
}

// Close is a no-op; the database connection belongs to the store package.
func (s *SQLiteStore) Close() error { return nil }
