package dispatcher

import (
	"context"
	"strings"
	"time"

	"github.com/wardbot/backend/internal/platform"
)

// Command is one registered bot command. Execute runs after every gate has
// passed; it owns its own replies.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	// Cooldown overrides the default per-actor cooldown; zero means default.
	Cooldown  time.Duration
	GroupOnly bool
	AdminOnly bool
	OwnerOnly bool
	Execute   func(ctx context.Context, ev *platform.Event, args []string) error
}

// Registry maps canonical names and aliases to commands. Registration
// happens at startup only; lookups afterwards are read-only.
type Registry struct {
	commands map[string]*Command
	ordered  []*Command
}

func NewRegistry() *Registry {
	return &Registry{commands: map[string]*Command{}}
}

// Register binds the command under its name and all aliases, lowercased.
// A duplicate token silently wins over the earlier binding; keep tokens
// unique at the call site.
func (r *Registry) Register(cmd *Command) {
	r.commands[strings.ToLower(cmd.Name)] = cmd
	for _, alias := range cmd.Aliases {
		r.commands[strings.ToLower(alias)] = cmd
	}
	r.ordered = append(r.ordered, cmd)
}

// Resolve looks a token up case-insensitively. Returns nil for unknown
// tokens.
func (r *Registry) Resolve(token string) *Command {
	return r.commands[strings.ToLower(token)]
}

// All returns the commands in registration order, one entry per command
// regardless of aliases.
func (r *Registry) All() []*Command {
	return r.ordered
}
