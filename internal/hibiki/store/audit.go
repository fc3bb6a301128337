package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// AuditEntry is one row of the message audit log.  Every handled message and
// every slash command writes an entry, so operators can trace what the bot
// did and which path (remote or local) produced each reply.
type AuditEntry struct {
	ID           int64
	Timestamp    time.Time
	TraceID      string
	SenderID     string
	Action       string
	PayloadJSON  sql.NullString
	Result       string
	ErrorMessage sql.NullString
}

// AuditPayload is a helper for structured audit payloads.
type AuditPayload map[string]interface{}

// WriteAudit logs an audit entry.
func (s *Store) WriteAudit(ctx context.Context, traceID, senderID, action, result string, payload AuditPayload, errorMsg string) error {
	var payloadJSON sql.NullString
	if payload != nil {
		jsonBytes, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal audit payload: %w", err)
		}
		payloadJSON = sql.NullString{String: string(jsonBytes), Valid: true}
	}

	var errorNull sql.NullString
	if errorMsg != "" {
		errorNull = sql.NullString{String: errorMsg, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (ts, trace_id, sender_id, action, payload_json, result, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, time.Now(), traceID, senderID, action, payloadJSON, result, errorNull)
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// RecentAudit retrieves the most recent audit entries, newest first.
func (s *Store) RecentAudit(ctx context.Context, limit int) ([]*AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, trace_id, sender_id, action, payload_json, result, error_message
		FROM audit_log
		ORDER BY ts DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		entry := &AuditEntry{}
		if err := rows.Scan(
			&entry.ID, &entry.Timestamp, &entry.TraceID, &entry.SenderID,
			&entry.Action, &entry.PayloadJSON, &entry.Result, &entry.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit log: %w", err)
	}
	return entries, nil
}

// AuditCount returns the total number of audit entries for an action, or for
// all actions when action is empty.
func (s *Store) AuditCount(ctx context.Context, action string) (int, error) {
	var n int
	var err error
	if action == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log WHERE action = ?`, action).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return n, nil
}
