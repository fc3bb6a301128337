package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsCreateSchema(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"history_turns", "audit_log", "matrix_sync_state"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not created: %v", table, err)
		}
	}

	var version int
	if err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	if version < 1 {
		t.Errorf("schema version = %d, want >= 1", version)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	var first int
	s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&first)
	s.Close()

	// Reopening must not reapply migrations.
	s, err = New(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()
	var second int
	s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&second)

	if first != second {
		t.Errorf("migration count changed on reopen: %d -> %d", first, second)
	}
}

func TestParseMigrationName(t *testing.T) {
	tests := []struct {
		name        string
		version     int
		description string
		ok          bool
	}{
		{"0001_init.sql", 1, "init", true},
		{"0002_add_audit_index.sql", 2, "add_audit_index", true},
		{"notes.txt", 0, "", false},
		{"nounderscore.sql", 0, "", false},
		{"abcd_init.sql", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, description, ok := parseMigrationName(tt.name)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if version != tt.version || description != tt.description {
				t.Errorf("got (%d, %q), want (%d, %q)", version, description, tt.version, tt.description)
			}
		})
	}
}

func TestAuditRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WriteAudit(ctx, "trace-1", "@alice:example.org", "message", "ok",
		AuditPayload{"intent": "greeting", "latency_ms": 42}, "")
	if err != nil {
		t.Fatalf("WriteAudit: %v", err)
	}
	err = s.WriteAudit(ctx, "trace-2", "@bob:example.org", "command", "error", nil, "boom")
	if err != nil {
		t.Fatalf("WriteAudit: %v", err)
	}

	entries, err := s.RecentAudit(ctx, 10)
	if err != nil {
		t.Fatalf("RecentAudit: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	// Newest first.
	if entries[0].TraceID != "trace-2" {
		t.Errorf("first entry trace = %q, want trace-2", entries[0].TraceID)
	}
	if !entries[0].ErrorMessage.Valid || entries[0].ErrorMessage.String != "boom" {
		t.Errorf("error message = %+v, want boom", entries[0].ErrorMessage)
	}
	if entries[0].PayloadJSON.Valid {
		t.Error("nil payload should store NULL")
	}

	if !entries[1].PayloadJSON.Valid {
		t.Fatal("payload missing for trace-1")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(entries[1].PayloadJSON.String), &payload); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if payload["intent"] != "greeting" {
		t.Errorf("payload intent = %v, want greeting", payload["intent"])
	}
}

func TestAuditCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		s.WriteAudit(ctx, "t", "@alice:example.org", "message", "ok", nil, "")
	}
	s.WriteAudit(ctx, "t", "@alice:example.org", "command", "ok", nil, "")

	if n, err := s.AuditCount(ctx, "message"); err != nil || n != 3 {
		t.Errorf("AuditCount(message) = %d, %v; want 3", n, err)
	}
	if n, err := s.AuditCount(ctx, ""); err != nil || n != 4 {
		t.Errorf("AuditCount(all) = %d, %v; want 4", n, err)
	}
	if n, err := s.AuditCount(ctx, "absent"); err != nil || n != 0 {
		t.Errorf("AuditCount(absent) = %d, %v; want 0", n, err)
	}
}
