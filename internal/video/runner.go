package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"skyscope/internal/logging"
)

// Command is one subprocess invocation.
type Command struct {
	Binary string
	Args   []string
}

func (c Command) String() string {
	return c.Binary + " " + strings.Join(c.Args, " ")
}

// Runner executes commands. ExecRunner in production; tests substitute a
// recorder.
type Runner interface {
	Run(ctx context.Context, cmd Command) (stdout string, err error)
}

// ExecRunner runs commands with os/exec. Stderr is kept (tail only) and
// attached to the error on failure.
type ExecRunner struct {
	MaxStderrBytes int
}

// Run executes cmd and returns its stdout.
func (r ExecRunner) Run(ctx context.Context, cmd Command) (string, error) {
	max := r.MaxStderrBytes
	if max <= 0 {
		max = 4096
	}
	var stdout bytes.Buffer
	stderr := &tailWriter{max: max}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...)
	c.Stdout = &stdout
	c.Stderr = stderr

	logging.Get(logging.CategoryVideo).Debug("exec: %s", cmd)
	err := c.Run()
	if err == nil {
		return stdout.String(), nil
	}
	if ctx.Err() != nil {
		return "", fmt.Errorf("%s interrupted: %w", cmd.Binary, ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return "", fmt.Errorf("%s exited %d: %s", cmd.Binary, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
	}
	return "", fmt.Errorf("%s: %w", cmd.Binary, err)
}

// tailWriter keeps only the last max bytes written.
type tailWriter struct {
	buf []byte
	max int
}

func (t *tailWriter) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailWriter) String() string { return string(t.buf) }
