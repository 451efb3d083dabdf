// Package runnertest provides a scripted runner.Executor for tests.
package runnertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/xpautothrottle/xplbuild/internal/runner"
)

// Handler produces the result for one command.
type Handler func(cmd runner.Command) runner.Result

// Fake records every command it receives and answers from per-program
// handlers. Programs without a handler succeed with empty output.
type Fake struct {
	mu       sync.Mutex
	handlers map[string]Handler
	calls    []runner.Command
}

func New() *Fake {
	return &Fake{handlers: map[string]Handler{}}
}

// Handle registers h for commands whose first argument is program.
func (f *Fake) Handle(program string, h Handler) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[program] = h
	return f
}

// Fail makes program exit with code and stderr.
func (f *Fake) Fail(program string, code int, stderr string) *Fake {
	return f.Handle(program, func(runner.Command) runner.Result {
		return Exit(code, "", stderr)
	})
}

func (f *Fake) Run(ctx context.Context, cmd runner.Command) runner.Result {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	var h Handler
	if len(cmd.Args) > 0 {
		h = f.handlers[cmd.Args[0]]
	}
	f.mu.Unlock()
	if h == nil {
		return runner.Result{Success: true}
	}
	return h(cmd)
}

// Calls returns a copy of the recorded commands.
func (f *Fake) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Command(nil), f.calls...)
}

// CallsTo returns the recorded commands for program.
func (f *Fake) CallsTo(program string) []runner.Command {
	var out []runner.Command
	for _, c := range f.Calls() {
		if len(c.Args) > 0 && c.Args[0] == program {
			out = append(out, c)
		}
	}
	return out
}

// OK is a successful result with the given stdout.
func OK(stdout string) runner.Result {
	return runner.Result{Success: true, Stdout: stdout}
}

// Exit is a result for a process that exited with code.
func Exit(code int, stdout, stderr string) runner.Result {
	if code == 0 {
		return runner.Result{Success: true, Stdout: stdout, Stderr: stderr}
	}
	return runner.Result{
		ExitCode: code,
		Stdout:   stdout,
		Stderr:   stderr,
		Err:      fmt.Errorf("command failed with exit code %d", code),
	}
}
