package service

import (
	"context"
	"strings"

	"github.com/acheronbot/acheron/internal/biz/domain"
	"github.com/acheronbot/acheron/internal/biz/repo"
	"github.com/acheronbot/acheron/internal/conf"
)

// CommandContext exposes the capabilities a command handler may use
type CommandContext struct {
	Sender repo.MessageRepo
	Store  repo.StoreRepo
	Event  *domain.Event
	ChatID string
	Args   []string

	// Fresh config snapshot for this event and the loader for commands
	// that persist changes
	Config       *conf.BotConfig
	ConfigLoader *conf.BotConfigLoader

	// Effective prefix for this event (help text, unknown-command notice)
	Prefix string

	// Registry for introspection (help)
	Registry *Registry

	// RequestRestart signals a graceful process restart
	RequestRestart func()
}

// Handler executes a command
type Handler func(ctx context.Context, cc *CommandContext) error

// Command describes a registered command
type Command struct {
	Name        string
	Description string
	OwnerOnly   bool
	Handler     Handler
}

// Registry is the name-keyed command table.
// Commands are registered once at startup; lookups are case-insensitive.
type Registry struct {
	commands map[string]*Command
	order    []string
}

// NewRegistry creates an empty command registry
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds a command to the registry
func (r *Registry) Register(cmd *Command) {
	name := strings.ToLower(cmd.Name)
	if _, exists := r.commands[name]; !exists {
		r.order = append(r.order, name)
	}
	r.commands[name] = cmd
}

// Lookup finds a command by name, case-insensitive
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// List returns all commands in registration order
func (r *Registry) List() []*Command {
	out := make([]*Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}
