package desktop

import (
	"context"
	"fmt"
	"time"

	"github.com/vatsalai/vatsal/internal/bridge"
)

// PingAction answers "pong".
type PingAction struct{}

func (PingAction) Name() string        { return "ping" }
func (PingAction) Description() string { return "Check that the backend is alive." }
func (PingAction) Run(context.Context, string) (Result, error) {
	return success("pong"), nil
}

// EchoAction returns its arguments unchanged.
type EchoAction struct{}

func (EchoAction) Name() string        { return "echo" }
func (EchoAction) Description() string { return "Repeat the given text." }
func (EchoAction) Run(_ context.Context, args string) (Result, error) {
	return success(args), nil
}

// TimeAction reports the backend's local time.
type TimeAction struct {
	Now func() time.Time
}

func (TimeAction) Name() string        { return "time" }
func (TimeAction) Description() string { return "Show the current local time." }
func (a TimeAction) Run(context.Context, string) (Result, error) {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	t := now()
	return Result{
		Success: true,
		Message: t.Format("Monday, 02 Jan 2006 15:04:05 MST"),
		Details: map[string]any{"unix": t.Unix(), "zone": t.Location().String()},
	}, nil
}

// StatusReader is the part of the bridge StatusAction needs.
type StatusReader interface {
	Status() bridge.Status
}

// StatusAction summarises the bridge state.
type StatusAction struct {
	Bridge StatusReader
}

func (StatusAction) Name() string        { return "status" }
func (StatusAction) Description() string { return "Summarise the bridge state." }
func (a StatusAction) Run(context.Context, string) (Result, error) {
	st := a.Bridge.Status()
	return Result{
		Success: true,
		Message: fmt.Sprintf("running=%t backend=%q subscribers=%d pending_commands=%d pending_responses=%d",
			st.Running, st.Backend, st.Subscribers, st.PendingCommands, st.PendingResponses),
		Details: map[string]any{"status": st},
	}, nil
}
