package desktop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/vatsalai/vatsal/internal/bridge"
)

const (
	DefaultPollTimeout    = 500 * time.Millisecond
	DefaultCommandTimeout = 30 * time.Second
)

// Link is the part of the bridge the runner talks to.
type Link interface {
	RegisterBackend(bridge.Backend)
	PollCommand(timeout time.Duration) (bridge.Command, bool)
	PublishResponse(r bridge.Response) error
}

// Runner pulls commands from the bridge one at a time and answers each with
// exactly one response.
type Runner struct {
	link           Link
	exec           Executor
	pollTimeout    time.Duration
	commandTimeout time.Duration
}

// NewRunner creates a Runner. Non-positive timeouts fall back to the defaults.
func NewRunner(link Link, exec Executor, pollTimeout, commandTimeout time.Duration) *Runner {
	if pollTimeout <= 0 {
		pollTimeout = DefaultPollTimeout
	}
	if commandTimeout <= 0 {
		commandTimeout = DefaultCommandTimeout
	}
	return &Runner{
		link:           link,
		exec:           exec,
		pollTimeout:    pollTimeout,
		commandTimeout: commandTimeout,
	}
}

// Name implements bridge.Backend.
func (r *Runner) Name() string { return "desktop" }

// Run registers the runner as the bridge backend and serves commands until
// ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.link.RegisterBackend(r)
	slog.Info("desktop: runner started", "poll_timeout", r.pollTimeout, "command_timeout", r.commandTimeout)

	for {
		select {
		case <-ctx.Done():
			slog.Info("desktop: runner stopped")
			return ctx.Err()
		default:
		}

		cmd, ok := r.link.PollCommand(r.pollTimeout)
		if !ok {
			continue
		}
		r.handle(ctx, cmd)
	}
}

func (r *Runner) handle(ctx context.Context, cmd bridge.Command) {
	started := time.Now()
	slog.Info("desktop: executing", "request_id", cmd.RequestID(), "source", cmd.Source(), "command", cmd.Preview())

	res, err := r.execute(ctx, cmd.Command())

	resp := bridge.Response{
		bridge.FieldRequestID: cmd.RequestID(),
		"command":             cmd.Command(),
	}
	details := map[string]any{}
	for k, v := range res.Details {
		details[k] = v
	}
	details["duration_ms"] = time.Since(started).Milliseconds()

	switch {
	case err != nil:
		resp[bridge.FieldStatus] = bridge.StatusError
		resp["result"] = err.Error()
		slog.Warn("desktop: command failed", "request_id", cmd.RequestID(), "err", err)
	case !res.Success:
		resp[bridge.FieldStatus] = bridge.StatusError
		resp["result"] = res.Message
	default:
		resp[bridge.FieldStatus] = bridge.StatusSuccess
		resp["result"] = res.Message
	}
	resp["details"] = details

	if err := r.link.PublishResponse(resp); err != nil {
		slog.Error("desktop: publish failed", "request_id", cmd.RequestID(), "err", err)
	}
}

type outcome struct {
	res Result
	err error
}

// execute runs command with the per-command timeout. An executor that
// ignores its context is abandoned when the timeout fires.
func (r *Runner) execute(ctx context.Context, command string) (Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.commandTimeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				slog.Error("desktop: executor panicked", "panic", p, "stack", string(debug.Stack()))
				done <- outcome{err: fmt.Errorf("desktop: executor panicked: %v", p)}
			}
		}()
		res, err := r.exec.Execute(runCtx, command)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-runCtx.Done():
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("desktop: command timed out after %v", r.commandTimeout)
		}
		return Result{}, runCtx.Err()
	}
}
