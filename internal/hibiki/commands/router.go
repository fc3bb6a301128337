// Package commands provides slash-command parsing and routing for Hibiki.
// Anything that is not a command flows past the router to the conversation
// engine.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"maunium.net/go/mautrix/event"
)

// Command represents a parsed slash command.
type Command struct {
	Name    string
	Args    []string
	RawText string
}

// ErrNotACommand is returned by Parse when the message does not start with
// the command prefix.  Callers should use errors.Is to distinguish this
// expected case (route to the engine instead) from real errors.
var ErrNotACommand = errors.New("not a command (missing prefix)")

// Handler is a function that handles a command.
type Handler func(ctx context.Context, cmd *Command, evt *event.Event) (string, error)

// Router routes slash commands to handlers.
type Router struct {
	handlers map[string]Handler
	prefix   string
}

// NewRouter creates a new command router.  prefix is typically "/".
func NewRouter(prefix string) *Router {
	return &Router{
		handlers: make(map[string]Handler),
		prefix:   prefix,
	}
}

// Register registers a command handler under its name (without prefix).
func (r *Router) Register(command string, handler Handler) {
	r.handlers[command] = handler
}

// Known returns the sorted-insertion set of registered command names.
func (r *Router) Known() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}

// Parse parses a message into a command.
func (r *Router) Parse(text string) (*Command, error) {
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, r.prefix) {
		return nil, ErrNotACommand
	}

	text = strings.TrimSpace(strings.TrimPrefix(text, r.prefix))
	if text == "" {
		return nil, fmt.Errorf("empty command")
	}

	parts := strings.Fields(text)
	return &Command{
		Name:    strings.ToLower(parts[0]),
		Args:    parts[1:],
		RawText: text,
	}, nil
}

// Route parses and routes a command to its handler.
func (r *Router) Route(ctx context.Context, text string, evt *event.Event) (string, error) {
	cmd, err := r.Parse(text)
	if err != nil {
		return "", err
	}

	handler, ok := r.handlers[cmd.Name]
	if !ok {
		return "", fmt.Errorf("unknown command: %s", cmd.Name)
	}
	return handler(ctx, cmd, evt)
}

// GetArg returns an argument by index.
func (c *Command) GetArg(index int) (string, bool) {
	if index < 0 || index >= len(c.Args) {
		return "", false
	}
	return c.Args[index], true
}
