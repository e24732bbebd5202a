package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/buildstamp/internal/foundation/errors"
	"git.home.luguber.info/inful/buildstamp/internal/logfields"
	"git.home.luguber.info/inful/buildstamp/internal/metrics"
	"git.home.luguber.info/inful/buildstamp/internal/shell"
)

// Executor runs go tool commands.
type Executor struct {
	runner   shell.Runner
	logger   *slog.Logger
	recorder metrics.Recorder
	jobs     int
	dir      string
	out      *lockedWriter
	stdin    io.Reader
}

// lockedWriter serialises writes from concurrent compiles.
type lockedWriter struct {
	mu       sync.Mutex
	w        io.Writer
	terminal bool
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// NewExecutor creates an executor running one compile at a time.
func NewExecutor(runner shell.Runner, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		runner:   runner,
		logger:   logger,
		recorder: metrics.NoopRecorder{},
		jobs:     1,
		out:      &lockedWriter{w: os.Stdout, terminal: true},
		stdin:    os.Stdin,
	}
}

// WithRecorder injects a metrics recorder.
func (e *Executor) WithRecorder(r metrics.Recorder) *Executor {
	if r != nil {
		e.recorder = r
	}
	return e
}

// WithJobs bounds the number of concurrent compiles (values below 1 mean 1).
func (e *Executor) WithJobs(n int) *Executor {
	e.jobs = max(n, 1)
	return e
}

// WithDir sets the working directory of every command.
func (e *Executor) WithDir(dir string) *Executor {
	e.dir = dir
	return e
}

// WithOutput redirects progress lines and command output and detaches the
// programs from the terminal's stdin.
func (e *Executor) WithOutput(w io.Writer) *Executor {
	e.out = &lockedWriter{w: w}
	e.stdin = nil
	return e
}

func (e *Executor) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(e.out, format, args...)
}

// BuildAll compiles every command, at most jobs at a time. The first failure
// cancels the compiles still running; its error carries the exit status.
func (e *Executor) BuildAll(ctx context.Context, cmds []Command) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.jobs)
	for _, cmd := range cmds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.printf("Building %s ...\n%s\n", cmd.Target, cmd.String())

			start := time.Now()
			err := e.runner.Run(gctx, e.shellCommand(cmd.Shell(), nil))
			canceled := err != nil && gctx.Err() != nil
			e.recorder.ObserveCompileDuration(cmd.Target, time.Since(start), metrics.ResultFor(err, canceled))
			if err != nil {
				return e.commandError(cmd.Target, cmd.Action, err)
			}
			e.logger.Debug("Compiled target",
				logfields.Target(cmd.Target),
				logfields.Path(cmd.Output),
				logfields.DurationMS(float64(time.Since(start).Milliseconds())))
			return nil
		})
	}
	err := g.Wait()
	e.recorder.IncCommandResult(string(ActionBuild), metrics.ResultFor(err, ctx.Err() != nil))
	return err
}

// Run executes a single command attached to the terminal, appending args
// after the package so they reach the program.
func (e *Executor) Run(ctx context.Context, cmd Command, args ...string) error {
	sc := cmd.Shell()
	sc.Args = append(append([]string(nil), sc.Args...), args...)
	e.printf("%s\n", cmd.String())
	err := e.runner.Run(ctx, e.shellCommand(sc, e.stdin))
	e.recorder.IncCommandResult(string(cmd.Action), metrics.ResultFor(err, ctx.Err() != nil))
	if err != nil {
		return e.commandError(cmd.Target, cmd.Action, err)
	}
	return nil
}

// Exec runs the binary written by a build command, attached to the terminal.
// Canceling ctx kills the program.
func (e *Executor) Exec(ctx context.Context, cmd Command, args ...string) error {
	if cmd.Output == "" {
		return errors.ValidationError("command produces no binary").
			WithContext(logfields.KeyTarget, cmd.Target).
			Build()
	}
	sc := shell.Command{Name: cmd.Output, Args: args}
	e.printf("%s\n", sc.String())
	err := e.runner.Run(ctx, e.shellCommand(sc, e.stdin))
	e.recorder.IncCommandResult(string(ActionRun), metrics.ResultFor(err, ctx.Err() != nil))
	if err != nil {
		return e.commandError(cmd.Target, ActionRun, err)
	}
	return nil
}

// Test runs the module's tests.
func (e *Executor) Test(ctx context.Context, extra ...string) error {
	sc := TestCommand(extra...)
	e.printf("%s\n", sc.String())
	err := e.runner.Run(ctx, e.shellCommand(sc, nil))
	e.recorder.IncCommandResult(string(ActionTest), metrics.ResultFor(err, ctx.Err() != nil))
	if err != nil {
		return e.commandError("", ActionTest, err)
	}
	return nil
}

func (e *Executor) shellCommand(sc shell.Command, stdin io.Reader) shell.Command {
	sc.Dir = e.dir
	sc.Stdin = stdin
	if !e.out.terminal {
		sc.Stdout = e.out
		sc.Stderr = e.out
	}
	return sc
}

func (e *Executor) commandError(target string, action Action, err error) error {
	b := errors.BuildError(fmt.Sprintf("go %s failed", action)).
		WithCause(err).
		WithContext(logfields.KeyAction, string(action))
	if target != "" {
		b = b.WithContext(logfields.KeyTarget, target)
	}
	if code, ok := shell.ExitCode(err); ok {
		b = b.WithExitCode(code)
	}
	return b.Build()
}
