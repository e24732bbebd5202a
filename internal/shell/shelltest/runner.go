// Package shelltest provides a scripted shell.Runner for tests.
package shelltest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"git.home.luguber.info/inful/buildstamp/internal/shell"
)

// Response is the scripted result for one command line.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
	// Hook runs before the response is returned, with the command's stdin.
	Hook func(stdin string)
}

// Runner replays scripted responses keyed by the command line. Unscripted
// commands fail with exit code 127.
type Runner struct {
	mu        sync.Mutex
	responses map[string][]Response
	calls     []shell.Command
	stdins    []string
}

// New creates an empty scripted runner.
func New() *Runner {
	return &Runner{responses: make(map[string][]Response)}
}

// On queues a response for the command line (program and arguments joined by
// single spaces, e.g. "git rev-parse HEAD"). Several queued responses are
// consumed in order; the last one repeats.
func (r *Runner) On(line string, resp Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[line] = append(r.responses[line], resp)
	return r
}

// Calls returns the command lines executed so far.
func (r *Runner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = Line(c)
	}
	return out
}

// Commands returns the commands executed so far.
func (r *Runner) Commands() []shell.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shell.Command(nil), r.calls...)
}

// Stdin returns the stdin passed to the i-th call.
func (r *Runner) Stdin(i int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stdins[i]
}

// Count returns how many times line was executed.
func (r *Runner) Count(line string) int {
	n := 0
	for _, c := range r.Calls() {
		if c == line {
			n++
		}
	}
	return n
}

// Line joins a command's program and arguments with single spaces.
func Line(c shell.Command) string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

func (r *Runner) next(c shell.Command) (Response, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stdin := ""
	if c.Stdin != nil {
		b, _ := io.ReadAll(c.Stdin)
		stdin = string(b)
	}
	r.calls = append(r.calls, c)
	r.stdins = append(r.stdins, stdin)

	line := Line(c)
	queue := r.responses[line]
	if len(queue) == 0 {
		return Response{}, false
	}
	resp := queue[0]
	if len(queue) > 1 {
		r.responses[line] = queue[1:]
	}
	if resp.Hook != nil {
		resp.Hook(stdin)
	}
	return resp, true
}

func (r *Runner) result(c shell.Command, resp Response, ok bool) error {
	if !ok {
		return &shell.Error{Command: Line(c), ExitCode: 127, Err: fmt.Errorf("unscripted command")}
	}
	if resp.Err != nil || resp.ExitCode != 0 {
		err := resp.Err
		if err == nil {
			err = fmt.Errorf("exit status %d", resp.ExitCode)
		}
		return &shell.Error{Command: Line(c), ExitCode: resp.ExitCode, Stderr: resp.Stderr, Err: err}
	}
	return nil
}

// Output implements shell.Runner.
func (r *Runner) Output(ctx context.Context, c shell.Command) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resp, ok := r.next(c)
	return resp.Stdout, r.result(c, resp, ok)
}

// Run implements shell.Runner.
func (r *Runner) Run(ctx context.Context, c shell.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	resp, ok := r.next(c)
	if c.Stdout != nil && resp.Stdout != "" {
		_, _ = io.WriteString(c.Stdout, resp.Stdout)
	}
	if c.Stderr != nil && resp.Stderr != "" {
		_, _ = io.WriteString(c.Stderr, resp.Stderr)
	}
	return r.result(c, resp, ok)
}

var _ shell.Runner = (*Runner)(nil)
