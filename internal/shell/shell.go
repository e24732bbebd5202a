package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/buildstamp/internal/logfields"
)

// Command describes one program invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env is appended to the current process environment.
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command the way a user would type it.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, Quote(c.Name))
	for _, a := range c.Args {
		parts = append(parts, Quote(a))
	}
	return strings.Join(parts, " ")
}

// Runner executes commands.
type Runner interface {
	// Output runs cmd and returns its standard output. Stdout on cmd is ignored.
	Output(ctx context.Context, cmd Command) (string, error)
	// Run runs cmd with its streams attached to cmd.Stdout/Stderr (the process
	// streams when nil).
	Run(ctx context.Context, cmd Command) error
}

// Error is returned when a command cannot start or exits non-zero.
type Error struct {
	Command  string
	ExitCode int // -1 when the process did not run to completion
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode extracts the exit status from an error returned by a Runner.
// It returns false when err carries no exit status.
func ExitCode(err error) (int, bool) {
	var se *Error
	if errors.As(err, &se) && se.ExitCode > 0 {
		return se.ExitCode, true
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) && ee.ExitCode() > 0 {
		return ee.ExitCode(), true
	}
	return 0, false
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Logger *slog.Logger
}

// NewExecRunner returns a runner logging through logger (slog.Default when nil).
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{Logger: logger}
}

func (r *ExecRunner) command(ctx context.Context, c Command) *exec.Cmd {
	// #nosec G204 -- commands are assembled from fixed program names and derived arguments
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdin = c.Stdin
	return cmd
}

// Output implements Runner.
func (r *ExecRunner) Output(ctx context.Context, c Command) (string, error) {
	cmd := r.command(ctx, c)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, c.Stderr)
	}
	r.Logger.Debug("exec", logfields.Command(c.String()))
	if err := cmd.Run(); err != nil {
		return stdout.String(), wrap(c, err, stderr.String())
	}
	return stdout.String(), nil
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := r.command(ctx, c)
	cmd.Stdout = c.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = c.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	r.Logger.Debug("exec", logfields.Command(c.String()))
	if err := cmd.Run(); err != nil {
		return wrap(c, err, "")
	}
	return nil
}

func wrap(c Command, err error, stderr string) error {
	code := -1
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		code = ee.ExitCode()
	}
	return &Error{Command: c.String(), ExitCode: code, Stderr: stderr, Err: err}
}

// Quote returns s unchanged when it is safe as a single shell word and
// single-quoted otherwise.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n\"'`$\\|&;<>()*?[]{}!#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
