package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
matrix:
  homeserver: https://matrix.example.org
  user_id: "@hibiki:example.org"
  rooms:
    - "!abc123:example.org"
    - "!def456:example.org"

model:
  name: gpt-4o-mini
  base_url: http://localhost:11434/v1
  classify_timeout: 10s
  respond_timeout: 15s

history:
  max_turns: 10

rate_limit:
  per_minute: 20
`

func TestParseValid(t *testing.T) {
	f, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if f.Matrix.Homeserver != "https://matrix.example.org" {
		t.Errorf("Homeserver = %q", f.Matrix.Homeserver)
	}
	if f.Matrix.UserID != "@hibiki:example.org" {
		t.Errorf("UserID = %q", f.Matrix.UserID)
	}
	if len(f.Matrix.Rooms) != 2 {
		t.Errorf("Rooms = %v", f.Matrix.Rooms)
	}
	if f.Model.Name != "gpt-4o-mini" {
		t.Errorf("Model.Name = %q", f.Model.Name)
	}
	if f.GetClassifyTimeout() != 10*time.Second {
		t.Errorf("GetClassifyTimeout = %v", f.GetClassifyTimeout())
	}
	if f.GetRespondTimeout() != 15*time.Second {
		t.Errorf("GetRespondTimeout = %v", f.GetRespondTimeout())
	}
	if f.History.MaxTurns != 10 {
		t.Errorf("MaxTurns = %d", f.History.MaxTurns)
	}
	if f.RateLimit.PerMinute != 20 {
		t.Errorf("PerMinute = %d", f.RateLimit.PerMinute)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	// Every field is optional; an empty file means all defaults.
	f, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.History.MaxTurns != 0 {
		t.Errorf("MaxTurns = %d, want 0 (unset)", f.History.MaxTurns)
	}
	if f.GetClassifyTimeout() != 0 {
		t.Errorf("GetClassifyTimeout = %v, want 0 (unset)", f.GetClassifyTimeout())
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"not yaml", "{{{", "config parse"},
		{"blank room", "matrix:\n  rooms:\n    - \"  \"\n", "matrix.rooms[0]"},
		{"negative classify timeout", "model:\n  classify_timeout: -5s\n", "classify_timeout"},
		{"negative respond timeout", "model:\n  respond_timeout: -1s\n", "respond_timeout"},
		{"unparseable timeout", "model:\n  classify_timeout: soon\n", "classify_timeout"},
		{"negative max turns", "history:\n  max_turns: -1\n", "max_turns"},
		{"negative rate limit", "rate_limit:\n  per_minute: -3\n", "per_minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hibiki.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Matrix.Homeserver != "https://matrix.example.org" {
		t.Errorf("Homeserver = %q", f.Matrix.Homeserver)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateNil(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
