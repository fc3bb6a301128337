package commands

import (
	"context"
	"fmt"
	"time"

	"maunium.net/go/mautrix/event"

	"github.com/bdobrica/hibiki/common/trace"
	"github.com/bdobrica/hibiki/common/version"
	"github.com/bdobrica/hibiki/internal/hibiki/engine"
	"github.com/bdobrica/hibiki/internal/hibiki/session"
	"github.com/bdobrica/hibiki/internal/hibiki/store"
)

// HandlersConfig carries the dependencies the command handlers need.
type HandlersConfig struct {
	Engine   *engine.Engine
	Sessions *session.Manager
	Store    *store.Store

	// ResolveDisplayName maps a user ID to a human-friendly name, typically
	// via a Matrix profile lookup.  Optional; when nil or failing, the raw
	// user ID is used.
	ResolveDisplayName func(userID string) string
}

// Handlers holds all command handlers and their dependencies.
type Handlers struct {
	cfg HandlersConfig
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg HandlersConfig) *Handlers {
	return &Handlers{cfg: cfg}
}

// displayName resolves a friendly name for the sender, falling back to the
// raw user ID.
func (h *Handlers) displayName(userID string) string {
	if h.cfg.ResolveDisplayName != nil {
		if name := h.cfg.ResolveDisplayName(userID); name != "" {
			return name
		}
	}
	return userID
}

// HandleStart initialises (or resets) the sender's session.
func (h *Handlers) HandleStart(ctx context.Context, cmd *Command, evt *event.Event) (string, error) {
	traceID := trace.FromContext(ctx)
	sender := evt.Sender.String()
	name := h.displayName(sender)

	h.cfg.Sessions.Start(sender, name)

	if err := h.cfg.Store.WriteAudit(ctx, traceID, sender, "start", "success", nil, ""); err != nil {
		return "", fmt.Errorf("failed to write audit: %w", err)
	}

	welcome := fmt.Sprintf(`🤖 **Hibiki**

Hello %s! I'm your AI assistant. I can help you with:

✨ **Natural Conversation** - Just talk to me!
🤔 **Questions & Answers** - Ask me anything
🛠️ **General Assistance** - I'm here to help

Just send me a message and I'll respond naturally.

Type /help for more commands.`, name)
	return welcome, nil
}

// HandleHelp shows available commands.
func (h *Handlers) HandleHelp(ctx context.Context, cmd *Command, evt *event.Event) (string, error) {
	help := `🆘 **Available Commands:**

🤖 **Natural Chat** - Just type any message!
• Ask questions, request help, or chat casually
• I'll understand context from our conversation

📝 **Commands:**
• ` + "`/start`" + ` - Initialize the bot
• ` + "`/help`" + ` - Show this help message
• ` + "`/clear`" + ` - Clear conversation history
• ` + "`/status`" + ` - Show your session info

💡 **Examples:**
• "What's the weather like?"
• "Help me write an email"
• "Tell me a joke"
• "Explain quantum physics simply"

Just type naturally - I'm designed to understand and help! 🚀`
	return help, nil
}

// HandleClear resets the sender's conversation history.
func (h *Handlers) HandleClear(ctx context.Context, cmd *Command, evt *event.Event) (string, error) {
	traceID := trace.FromContext(ctx)
	sender := evt.Sender.String()

	if err := h.cfg.Engine.ClearHistory(ctx, sender); err != nil {
		h.cfg.Store.WriteAudit(ctx, traceID, sender, "clear", "error", nil, err.Error())
		return "", fmt.Errorf("failed to clear history: %w", err)
	}

	if err := h.cfg.Store.WriteAudit(ctx, traceID, sender, "clear", "success", nil, ""); err != nil {
		return "", fmt.Errorf("failed to write audit: %w", err)
	}

	return "🧹 **Conversation history cleared!**\n\n" +
		"I've forgotten our previous conversation. We can start fresh! 🆕", nil
}

// HandleStatus shows the sender's session info.
func (h *Handlers) HandleStatus(ctx context.Context, cmd *Command, evt *event.Event) (string, error) {
	sender := evt.Sender.String()

	sess, ok := h.cfg.Sessions.Get(sender)
	if !ok {
		return "❓ No active session. Use /start to begin!", nil
	}

	duration := time.Since(sess.StartedAt)
	hours := int(duration.Hours())
	minutes := int(duration.Minutes()) % 60

	aiStatus := "🔴 Offline"
	if h.cfg.Engine.RemoteEnabled() {
		aiStatus = "🟢 Active"
	}

	status := fmt.Sprintf(`📊 **Your Session Status**

👤 **User:** %s
🕒 **Session Duration:** %dh %dm
💬 **Messages Exchanged:** %d
🧠 **Conversation Memory:** %d exchanges
🤖 **AI Status:** %s

Ready to chat! 🚀`,
		sess.DisplayName,
		hours, minutes,
		sess.Messages,
		h.cfg.Engine.HistoryLen(ctx, sender),
		aiStatus,
	)
	return status, nil
}

// HandleVersion shows version information.
func (h *Handlers) HandleVersion(ctx context.Context, cmd *Command, evt *event.Event) (string, error) {
	return fmt.Sprintf("**Hibiki**\nVersion: %s\nCommit: %s\nBuild Time: %s",
		version.Version, version.GitCommit, version.BuildTime), nil
}
