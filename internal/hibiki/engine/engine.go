// Package engine implements Hibiki's intent/response core: it classifies a
// message's intent and sentiment, then generates a reply using bounded
// per-user conversation context.
//
// Both operations prefer a remote chat-completions call and degrade
// deterministically to local keyword heuristics on any failure.  Neither
// operation can fail from the caller's point of view: Classify always
// returns a classification and Respond always returns non-empty text.
// Remote failures are logged and silently downgraded; an absent API key is
// not an error but a permanent local-only mode, logged once at construction.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bdobrica/hibiki/internal/hibiki/history"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"

	// Per-call deadlines after which the engine stops waiting on the remote
	// model and answers locally.
	defaultClassifyTimeout = 10 * time.Second
	defaultRespondTimeout  = 15 * time.Second

	// promptTurns is how many of the most recent history turns are expanded
	// into the response prompt.
	promptTurns = 5
)

// systemPrompt is the fixed instruction prepended to every remote response
// call.
const systemPrompt = "You are a helpful AI assistant in a chat bot. " +
	"Be friendly, concise, and helpful. " +
	"Keep responses under 200 words unless specifically asked for more detail."

// classifyPromptTmpl is the single-message prompt for remote classification.
// The model is told to answer with bare JSON; stray code fences are stripped
// before decoding anyway.
const classifyPromptTmpl = `Analyze this message and return JSON with intent classification: %q

Return: {"intent": "question|request|greeting|chitchat|help", "sentiment": "positive|neutral|negative", "topic": "general|technical|personal|other"}`

// Config configures an Engine.  All fields are read-only after New.
type Config struct {
	// APIKey is the bearer token for the remote model.  When empty the
	// engine runs in local-only mode: both classification and response
	// generation use the keyword heuristics and never touch the network.
	APIKey string

	// BaseURL overrides the API endpoint.  Useful for local models (Ollama)
	// or any other OpenAI-compatible endpoint.
	// Defaults to https://api.openai.com/v1 when empty.
	BaseURL string

	// Model is the chat model used for both calls.
	// Defaults to gpt-4o-mini when empty.
	Model string

	// ClassifyTimeout bounds a single remote classification call.
	// Defaults to 10 s.
	ClassifyTimeout time.Duration

	// RespondTimeout bounds a single remote response call.  Defaults to 15 s.
	RespondTimeout time.Duration
}

// Engine is the intent/response core.  It is safe for concurrent use; the
// configuration is immutable and the history store synchronises itself.
type Engine struct {
	cfg     Config
	enabled bool
	chat    *chatClient
	history history.Store
}

// New creates an Engine backed by the given history store.
func New(cfg Config, hist history.Store) *Engine {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.ClassifyTimeout <= 0 {
		cfg.ClassifyTimeout = defaultClassifyTimeout
	}
	if cfg.RespondTimeout <= 0 {
		cfg.RespondTimeout = defaultRespondTimeout
	}

	e := &Engine{
		cfg:     cfg,
		enabled: cfg.APIKey != "",
		history: hist,
	}
	if e.enabled {
		e.chat = &chatClient{
			apiKey:  cfg.APIKey,
			baseURL: cfg.BaseURL,
			model:   cfg.Model,
			client:  &http.Client{},
		}
		slog.Info("engine: remote model enabled", "model", cfg.Model)
	} else {
		slog.Info("engine: no API key configured; keyword heuristics only")
	}
	return e
}

// RemoteEnabled reports whether the engine was constructed with a credential
// for the remote model.
func (e *Engine) RemoteEnabled() bool {
	return e.enabled
}

// Classify determines the intent, sentiment, and topic of a message.
// It never fails: any remote problem downgrades to the keyword heuristics.
func (e *Engine) Classify(ctx context.Context, message string) IntentResult {
	if !e.enabled {
		return heuristicAnalysis(message)
	}

	result, err := e.classifyRemote(ctx, message)
	if err != nil {
		slog.Warn("engine: remote classification failed; using keyword heuristics", "err", err)
		return heuristicAnalysis(message)
	}
	return result
}

// classifyRemote performs the single bounded remote classification call.
func (e *Engine) classifyRemote(ctx context.Context, message string) (IntentResult, error) {
	content, err := e.chat.complete(ctx,
		[]oaiMessage{{Role: "user", Content: fmt.Sprintf(classifyPromptTmpl, message)}},
		100, 0.1, e.cfg.ClassifyTimeout,
	)
	if err != nil {
		return IntentResult{}, err
	}
	return parseIntentResult(content)
}

// Respond generates a reply to the user's message, using up to the last
// five stored turns as context when the remote model is available.
//
// The exchange is recorded in the user's history on every call, remote or
// fallback, so context accumulates even while the model is unreachable.
// Respond never fails and never returns an empty string.
func (e *Engine) Respond(ctx context.Context, userID, message, hint string) string {
	reply := e.generate(ctx, userID, message, hint)

	turn := history.Turn{
		ID:        uuid.NewString(),
		UserText:  message,
		BotText:   reply,
		Timestamp: time.Now().UTC(),
	}
	if err := e.history.Append(ctx, userID, turn); err != nil {
		slog.Warn("engine: record conversation turn", "user_id", userID, "err", err)
	}

	return reply
}

// generate produces the reply text, preferring the remote model.
func (e *Engine) generate(ctx context.Context, userID, message, hint string) string {
	if !e.enabled {
		return heuristicReply(message)
	}

	reply, err := e.respondRemote(ctx, userID, message, hint)
	if err != nil {
		slog.Warn("engine: remote response failed; using canned reply", "user_id", userID, "err", err)
		return heuristicReply(message)
	}
	return reply
}

// respondRemote performs the single bounded remote response call.
func (e *Engine) respondRemote(ctx context.Context, userID, message, hint string) (string, error) {
	messages := []oaiMessage{{Role: "system", Content: systemPrompt}}

	recent, err := e.history.Recent(ctx, userID, promptTurns)
	if err != nil {
		// Degraded context is better than no reply; proceed without history.
		slog.Warn("engine: load conversation history", "user_id", userID, "err", err)
		recent = nil
	}
	for _, turn := range recent {
		messages = append(messages,
			oaiMessage{Role: "user", Content: turn.UserText},
			oaiMessage{Role: "assistant", Content: turn.BotText},
		)
	}

	current := message
	if hint != "" {
		current = fmt.Sprintf("Context: %s\nUser message: %s", hint, message)
	}
	messages = append(messages, oaiMessage{Role: "user", Content: current})

	reply, err := e.chat.complete(ctx, messages, 300, 0.7, e.cfg.RespondTimeout)
	if err != nil {
		return "", err
	}
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply content", ErrMalformedReply)
	}
	return reply, nil
}

// ClearHistory removes all stored turns for the user.  Clearing a user with
// no history is a no-op.
func (e *Engine) ClearHistory(ctx context.Context, userID string) error {
	return e.history.Clear(ctx, userID)
}

// HistoryLen returns the number of stored turns for the user (0 if absent).
func (e *Engine) HistoryLen(ctx context.Context, userID string) int {
	n, err := e.history.Count(ctx, userID)
	if err != nil {
		slog.Warn("engine: count conversation turns", "user_id", userID, "err", err)
		return 0
	}
	return n
}
