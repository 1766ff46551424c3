package desktop

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/vatsalai/vatsal/internal/shared/stringutils"
)

const maxShellOutput = 10000

// denyPatterns block destructive commands outright.
var denyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\s+-[rf]{1,2}\b`),            // rm -r, rm -rf, rm -fr
	regexp.MustCompile(`(?i)\bdel\s+/[fq]\b`),                // del /f, del /q
	regexp.MustCompile(`(?i)\brmdir\s+/s\b`),                 // rmdir /s
	regexp.MustCompile(`(?i)(?:^|[;&|]\s*)format\b`),         // format (standalone)
	regexp.MustCompile(`(?i)\b(mkfs|diskpart)\b`),            // disk ops
	regexp.MustCompile(`(?i)\bdd\s+if=`),                     // dd
	regexp.MustCompile(`(?i)>\s*/dev/sd`),                    // write to disk
	regexp.MustCompile(`(?i)\b(shutdown|reboot|poweroff)\b`), // power control
	regexp.MustCompile(`:\(\)\s*\{.*\};\s*:`),                // fork bomb
}

// ShellAction runs "run <command>" through sh -c with safety guards.
type ShellAction struct {
	timeout      time.Duration
	workingDir   string
	restrictToWD bool
}

// NewShellAction creates a ShellAction. workingDir empty means the process
// CWD; timeout <= 0 means 60s. restrict confines absolute paths in the
// command to workingDir.
func NewShellAction(workingDir string, timeout time.Duration, restrict bool) *ShellAction {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ShellAction{
		timeout:      timeout,
		workingDir:   workingDir,
		restrictToWD: restrict,
	}
}

func (s *ShellAction) Name() string        { return "run" }
func (s *ShellAction) Description() string { return "Run a shell command on the desktop host." }

func (s *ShellAction) Run(ctx context.Context, command string) (Result, error) {
	if command == "" {
		return Result{Message: "usage: run <shell command>"}, nil
	}

	cwd := s.workingDir
	if cwd == "" {
		cwd, _ = os.Getwd()
	}

	if reason := s.guard(command, cwd); reason != "" {
		return Result{
			Message: "blocked by safety guard: " + reason,
			Details: map[string]any{"blocked": true},
		}, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	cmd.Dir = cwd

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runCtx.Err() != nil {
		return Result{}, fmt.Errorf("shell: timed out after %v", s.timeout)
	}

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	if runErr != nil && cmd.ProcessState == nil {
		return Result{}, fmt.Errorf("shell: %w", runErr)
	}

	var parts []string
	if out := stdout.String(); out != "" {
		parts = append(parts, out)
	}
	if errOut := stderr.String(); strings.TrimSpace(errOut) != "" {
		parts = append(parts, "STDERR:\n"+errOut)
	}
	output := strings.Join(parts, "\n")
	if output == "" {
		output = "(no output)"
	}

	return Result{
		Success: exitCode == 0,
		Message: truncate(output, maxShellOutput),
		Details: map[string]any{"exit_code": exitCode, "cwd": cwd},
	}, nil
}

// guard returns a non-empty reason when command must not run.
func (s *ShellAction) guard(command, cwd string) string {
	lower := strings.ToLower(strings.TrimSpace(command))

	for _, p := range denyPatterns {
		if p.MatchString(lower) {
			return "dangerous pattern detected"
		}
	}

	if !s.restrictToWD {
		return ""
	}
	if strings.Contains(command, `..\`) || strings.Contains(command, "../") {
		return "path traversal detected"
	}

	cwdResolved, err := filepath.EvalSymlinks(cwd)
	if err != nil {
		cwdResolved = cwd
	}
	for _, raw := range extractAbsolutePaths(command) {
		p, err := filepath.EvalSymlinks(raw)
		if err != nil {
			p = filepath.Clean(raw)
		}
		if p != cwdResolved && !strings.HasPrefix(p, cwdResolved+string(filepath.Separator)) {
			return "path outside working dir"
		}
	}
	return ""
}

var absolutePathRE = regexp.MustCompile(`(?:^|[\s|>])(/[^\s"'>]+)`)

func extractAbsolutePaths(cmd string) []string {
	matches := absolutePathRE.FindAllStringSubmatch(cmd, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

func truncate(s string, max int) string {
	p := stringutils.Prefix(s, max)
	if len(p) == len(s) {
		return s
	}
	return p + fmt.Sprintf("\n... (truncated, %d more chars)", len(s)-len(p))
}
