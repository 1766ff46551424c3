// Package desktop is the backend side of the bridge: it polls commands,
// runs them through a registry of actions and publishes the outcome.
package desktop

import "context"

// Result is the outcome of one executed command.
type Result struct {
	Success bool
	Message string
	Details map[string]any
}

// Action handles commands whose first word equals Name.
type Action interface {
	Name() string
	Description() string
	// Run receives the command text after the action word, trimmed.
	Run(ctx context.Context, args string) (Result, error)
}

// Executor runs a complete command line.
type Executor interface {
	Execute(ctx context.Context, command string) (Result, error)
}

func success(message string) Result { return Result{Success: true, Message: message} }
