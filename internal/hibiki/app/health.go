package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/bdobrica/hibiki/common/version"
)

// HealthServer exposes /health and /status for liveness probes and casual
// operator inspection.  It is optional; Hibiki runs without it when HTTPAddr
// is empty.
type HealthServer struct {
	addr      string
	stats     statsProvider
	startedAt time.Time
	server    *http.Server
	mux       *http.ServeMux

	engineEnabled func() bool
	sessionCount  func() int
}

// statsProvider is the minimal interface the health server needs from Store.
type statsProvider interface {
	AuditCount(ctx context.Context, action string) (int, error)
}

// healthResponse is returned by GET /health.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// statusResponse is returned by GET /status.
type statusResponse struct {
	Status        string    `json:"status"`
	Version       string    `json:"version"`
	Commit        string    `json:"commit"`
	BuildTime     string    `json:"build_time"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSecs    float64   `json:"uptime_seconds"`
	Messages      int       `json:"messages_handled"`
	Sessions      int       `json:"active_sessions"`
	RemoteEnabled bool      `json:"remote_enabled"`
}

// NewHealthServer creates and configures the HTTP server (does not start it).
func NewHealthServer(addr string, stats statsProvider) *HealthServer {
	mux := http.NewServeMux()
	hs := &HealthServer{
		addr:      addr,
		stats:     stats,
		startedAt: time.Now(),
		mux:       mux,
	}
	mux.HandleFunc("/health", hs.handleHealth)
	mux.HandleFunc("/status", hs.handleStatus)
	return hs
}

// SetEngineStatus wires the engine-mode callback shown in /status.
func (h *HealthServer) SetEngineStatus(fn func() bool) { h.engineEnabled = fn }

// SetSessionCount wires the active-session callback shown in /status.
func (h *HealthServer) SetSessionCount(fn func() int) { h.sessionCount = fn }

// ServeHTTP implements http.Handler so the server can be tested without a
// live network listener (e.g. with httptest.NewRecorder).
func (h *HealthServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Start begins listening in the background. Blocks until the listener is
// established so the caller knows the port is open before returning.
func (h *HealthServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("health server: listen %s: %w", h.addr, err)
	}

	h.server = &http.Server{
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("health server listening", "addr", ln.Addr().String())
		if err := h.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("health server stopped", "err", err)
		}
	}()

	// Shutdown when ctx is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("health server shutdown error", "err", err)
		}
	}()

	return nil
}

// Stop shuts down the HTTP server.
func (h *HealthServer) Stop() {
	if h.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.server.Shutdown(ctx); err != nil {
		slog.Warn("health server shutdown error", "err", err)
	}
}

func (h *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Version,
		Commit:  version.GitCommit,
	})
}

func (h *HealthServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:     "ok",
		Version:    version.Version,
		Commit:     version.GitCommit,
		BuildTime:  version.BuildTime,
		StartedAt:  h.startedAt,
		UptimeSecs: time.Since(h.startedAt).Seconds(),
	}

	if h.stats != nil {
		n, err := h.stats.AuditCount(r.Context(), "message")
		if err != nil {
			slog.Warn("health: count handled messages", "err", err)
		} else {
			resp.Messages = n
		}
	}
	if h.sessionCount != nil {
		resp.Sessions = h.sessionCount()
	}
	if h.engineEnabled != nil {
		resp.RemoteEnabled = h.engineEnabled()
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("health: encode response", "err", err)
	}
}
