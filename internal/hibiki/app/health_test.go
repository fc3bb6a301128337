package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// stubStats provides canned audit counts to the health server.
type stubStats struct {
	count int
	err   error
}

func (s *stubStats) AuditCount(_ context.Context, _ string) (int, error) {
	return s.count, s.err
}

func TestHealthEndpoint(t *testing.T) {
	hs := NewHealthServer("127.0.0.1:0", nil)

	rec := httptest.NewRecorder()
	hs.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Status = %q, want ok", resp.Status)
	}
}

func TestStatusEndpoint(t *testing.T) {
	hs := NewHealthServer("127.0.0.1:0", &stubStats{count: 7})
	hs.SetEngineStatus(func() bool { return true })
	hs.SetSessionCount(func() int { return 3 })

	rec := httptest.NewRecorder()
	hs.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Messages != 7 {
		t.Errorf("Messages = %d, want 7", resp.Messages)
	}
	if resp.Sessions != 3 {
		t.Errorf("Sessions = %d, want 3", resp.Sessions)
	}
	if !resp.RemoteEnabled {
		t.Error("RemoteEnabled = false, want true")
	}
	if resp.UptimeSecs < 0 {
		t.Errorf("UptimeSecs = %v", resp.UptimeSecs)
	}
}

func TestStatusEndpoint_StatsFailureIsNotFatal(t *testing.T) {
	hs := NewHealthServer("127.0.0.1:0", &stubStats{err: errors.New("db closed")})

	rec := httptest.NewRecorder()
	hs.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when stats fail", rec.Code)
	}

	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Messages != 0 {
		t.Errorf("Messages = %d, want 0 when the count is unavailable", resp.Messages)
	}
}

func TestUnknownPath(t *testing.T) {
	hs := NewHealthServer("127.0.0.1:0", nil)

	rec := httptest.NewRecorder()
	hs.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
