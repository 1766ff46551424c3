package desktop

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyCommand   = errors.New("desktop: empty command")
	ErrUnknownCommand = errors.New("unknown command")
)

// RegistryBuilder accumulates actions during wiring. Call Build to get an
// immutable Registry.
type RegistryBuilder struct {
	actions map[string]Action
}

// NewRegistryBuilder returns an empty builder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{actions: make(map[string]Action)}
}

// WithAction adds a, replacing any action with the same name.
func (b *RegistryBuilder) WithAction(a Action) *RegistryBuilder {
	b.actions[strings.ToLower(a.Name())] = a
	return b
}

// Build produces the Registry. A "help" action listing every action is added
// unless one was registered explicitly.
func (b *RegistryBuilder) Build() *Registry {
	actions := make(map[string]Action, len(b.actions)+1)
	for k, v := range b.actions {
		actions[k] = v
	}
	r := &Registry{actions: actions}
	if _, exists := actions["help"]; !exists {
		actions["help"] = helpAction{r}
	}
	return r
}

// Registry dispatches a command line to the action named by its first word.
type Registry struct {
	actions map[string]Action
}

// Names returns the registered action words, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.actions))
	for n := range r.actions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get returns the action for word, or nil.
func (r *Registry) Get(word string) Action {
	return r.actions[strings.ToLower(word)]
}

// Execute implements Executor.
func (r *Registry) Execute(ctx context.Context, command string) (Result, error) {
	word, args := splitCommand(command)
	if word == "" {
		return Result{}, ErrEmptyCommand
	}
	a := r.Get(word)
	if a == nil {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownCommand, word)
	}
	return a.Run(ctx, args)
}

func splitCommand(command string) (word, args string) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", ""
	}
	word, args, _ = strings.Cut(command, " ")
	return word, strings.TrimSpace(args)
}

type helpAction struct{ r *Registry }

func (helpAction) Name() string        { return "help" }
func (helpAction) Description() string { return "List available commands." }

func (h helpAction) Run(_ context.Context, _ string) (Result, error) {
	var sb strings.Builder
	sb.WriteString("Available commands:")
	for _, n := range h.r.Names() {
		fmt.Fprintf(&sb, "\n  %-8s %s", n, h.r.actions[n].Description())
	}
	return Result{
		Success: true,
		Message: sb.String(),
		Details: map[string]any{"commands": h.r.Names()},
	}, nil
}
