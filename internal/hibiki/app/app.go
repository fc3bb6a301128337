// Package app wires Hibiki's subsystems together: the SQLite store, the
// Matrix transport, the command router, and the intent/response engine.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maunium.net/go/mautrix/event"

	"github.com/bdobrica/hibiki/common/retry"
	"github.com/bdobrica/hibiki/common/trace"
	"github.com/bdobrica/hibiki/internal/hibiki/commands"
	"github.com/bdobrica/hibiki/internal/hibiki/engine"
	"github.com/bdobrica/hibiki/internal/hibiki/history"
	"github.com/bdobrica/hibiki/internal/hibiki/matrix"
	"github.com/bdobrica/hibiki/internal/hibiki/session"
	"github.com/bdobrica/hibiki/internal/hibiki/store"
)

// typingTimeout is how long the typing indicator stays lit while the engine
// works on a reply.  Matches the longest engine deadline with headroom.
const typingTimeout = 30 * time.Second

// apologyMessage is sent when message handling fails unexpectedly.  The
// engine itself never fails; this covers transport and handler defects.
const apologyMessage = "😅 Sorry, I encountered an issue processing your message. " +
	"Please try again or use /help for available commands."

// Config is the top-level Hibiki configuration.
type Config struct {
	// DatabasePath is the SQLite database location.
	DatabasePath string

	// Matrix configures the chat transport.
	Matrix matrix.Config

	// Engine configures the intent/response core.
	Engine engine.Config

	// HistoryMaxTurns caps per-user conversation history.  Zero selects the
	// default of 10.
	HistoryMaxTurns int

	// PersistHistory stores conversation history in SQLite instead of
	// process memory, so multi-turn context survives restarts.
	PersistHistory bool

	// RateLimitPerMinute caps engine calls per sender per minute.  Zero
	// selects the default.
	RateLimitPerMinute int

	// HTTPAddr enables the health/status HTTP server when non-empty.
	HTTPAddr string
}

// App is the main Hibiki application.
type App struct {
	config       *Config
	store        *store.Store
	history      history.Store
	engine       *engine.Engine
	sessions     *session.Manager
	limiter      *RateLimiter
	matrix       *matrix.Client
	router       *commands.Router
	handlers     *commands.Handlers
	healthServer *HealthServer
}

// New creates a new Hibiki application.
func New(config *Config) (*App, error) {
	slog.Info("opening database", "path", config.DatabasePath)
	st, err := store.New(config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Inject the DB so the client can persist the sync token across restarts.
	matrixCfg := config.Matrix
	matrixCfg.DB = st.DB()
	slog.Info("connecting to Matrix", "homeserver", matrixCfg.Homeserver)
	matrixClient, err := matrix.New(&matrixCfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize Matrix client: %w", err)
	}

	// Conversation history: in-memory by default, SQLite-backed when the
	// deployment wants context to survive restarts.
	var histDB *sql.DB
	if config.PersistHistory {
		histDB = st.DB()
		slog.Info("conversation history: persistent SQLite backend")
	} else {
		slog.Info("conversation history: in-memory backend (lost on restart)")
	}
	hist := history.New(histDB, config.HistoryMaxTurns)

	eng := engine.New(config.Engine, hist)
	sessions := session.NewManager()
	limiter := NewRateLimiter(config.RateLimitPerMinute, 0)

	router := commands.NewRouter("/")
	handlers := commands.NewHandlers(commands.HandlersConfig{
		Engine:   eng,
		Sessions: sessions,
		Store:    st,
		ResolveDisplayName: func(userID string) string {
			name, err := matrixClient.GetDisplayName(userID)
			if err != nil {
				slog.Debug("resolve display name", "user_id", userID, "err", err)
				return ""
			}
			return name
		},
	})

	router.Register("start", handlers.HandleStart)
	router.Register("help", handlers.HandleHelp)
	router.Register("clear", handlers.HandleClear)
	router.Register("status", handlers.HandleStatus)
	router.Register("version", handlers.HandleVersion)

	var healthServer *HealthServer
	if config.HTTPAddr != "" {
		healthServer = NewHealthServer(config.HTTPAddr, st)
		healthServer.SetEngineStatus(eng.RemoteEnabled)
		healthServer.SetSessionCount(sessions.Len)
		slog.Info("health server configured", "addr", config.HTTPAddr)
	}

	return &App{
		config:       config,
		store:        st,
		history:      hist,
		engine:       eng,
		sessions:     sessions,
		limiter:      limiter,
		matrix:       matrixClient,
		router:       router,
		handlers:     handlers,
		healthServer: healthServer,
	}, nil
}

// Run starts the Hibiki application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.healthServer != nil {
		if err := a.healthServer.Start(ctx); err != nil {
			slog.Warn("health server failed to start; continuing without it", "err", err)
		}
	}

	slog.Info("starting Matrix sync")
	if err := a.matrix.Start(ctx, a.handleMessage); err != nil {
		return fmt.Errorf("failed to start Matrix client: %w", err)
	}

	for _, roomID := range a.config.Matrix.Rooms {
		a.matrix.SendNotice(roomID, "🤖 Hibiki is online. Just send a message, or type /help for commands.")
	}

	slog.Info("Hibiki is running; press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down")
	return nil
}

// Stop stops the Hibiki application.
func (a *App) Stop() {
	slog.Info("stopping Matrix client")
	a.matrix.Stop()

	if a.healthServer != nil {
		slog.Info("stopping health server")
		a.healthServer.Stop()
	}

	a.history.Close()

	slog.Info("closing database")
	a.store.Close()
}

// handleMessage processes one incoming Matrix message: slash commands go to
// the router, everything else to the engine.  A panic anywhere below is
// caught and answered with a generic apology — a user message must never
// take the sync loop down.
func (a *App) handleMessage(ctx context.Context, evt *event.Event) {
	roomID := evt.RoomID.String()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while handling message", "room", roomID, "panic", r)
			a.matrix.SendNotice(roomID, apologyMessage)
		}
	}()

	msgContent := evt.Content.AsMessage()
	if msgContent == nil {
		return
	}
	text := msgContent.Body
	sender := evt.Sender.String()

	traceID := trace.GenerateID()
	ctx = trace.WithTraceID(ctx, traceID)

	reply, err := a.router.Route(ctx, text, evt)
	switch {
	case err == nil:
		a.sendReply(ctx, roomID, reply)
		return

	case errors.Is(err, commands.ErrNotACommand):
		a.handleConversation(ctx, evt, roomID, sender, text)

	default:
		slog.Warn("command failed", "trace_id", traceID, "sender", sender, "err", err)
		a.matrix.SendNotice(roomID, apologyMessage)
	}
}

// handleConversation runs the classify → respond pipeline for a free-form
// message.
func (a *App) handleConversation(ctx context.Context, evt *event.Event, roomID, sender, text string) {
	traceID := trace.FromContext(ctx)

	if !a.limiter.Allow(sender) {
		slog.Info("sender rate-limited", "trace_id", traceID, "sender", sender)
		a.matrix.SendNotice(roomID, RateLimitMessage)
		return
	}

	sess := a.sessions.Touch(sender, "")

	// Light the typing indicator while the engine works; it clears itself.
	if err := a.matrix.SetTyping(roomID, true, typingTimeout); err != nil {
		slog.Debug("set typing indicator", "room", roomID, "err", err)
	}

	start := time.Now()
	analysis := a.engine.Classify(ctx, text)
	hint := fmt.Sprintf("Intent: %s, Sentiment: %s", analysis.Intent, analysis.Sentiment)
	reply := a.engine.Respond(ctx, sender, text, hint)
	latency := time.Since(start)

	if err := a.store.WriteAudit(ctx, traceID, sender, "message", "success", store.AuditPayload{
		"intent":        analysis.Intent,
		"sentiment":     analysis.Sentiment,
		"topic":         analysis.Topic,
		"latency_ms":    latency.Milliseconds(),
		"message_count": sess.Messages,
	}, ""); err != nil {
		slog.Warn("write message audit", "trace_id", traceID, "err", err)
	}

	a.sendReply(ctx, roomID, reply)
}

// sendReply delivers a reply with a short transport-level retry.  The engine
// already degraded internally, so a reply is always worth a second attempt.
func (a *App) sendReply(ctx context.Context, roomID, reply string) {
	err := retry.Do(ctx, retry.Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	}, func() error {
		return a.matrix.SendMarkdown(roomID, reply)
	})
	if err != nil {
		slog.Error("failed to send reply", "room", roomID, "err", err)
	}
}
