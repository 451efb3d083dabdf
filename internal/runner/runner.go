// Package runner executes external commands and normalizes every way they
// can fail into a single Result.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/xpautothrottle/xplbuild/internal/ctxlog"
)

// ErrNotFound is matched by Result.Err when the executable does not exist.
var ErrNotFound = errors.New("command not found")

// Command describes one external process.
type Command struct {
	Args    []string // program followed by its arguments
	Shell   bool     // run through the host command interpreter; a single arg is a script
	Dir     string   // working directory, empty for the current one
	Env     []string // extra KEY=VALUE pairs appended to the environment
	Capture bool     // collect stdout/stderr instead of streaming them
}

func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// Result is the outcome of a Command. It is always fully populated: either
// from a clean execution or synthesized from the failure.
type Result struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Executor runs commands.
type Executor interface {
	Run(ctx context.Context, cmd Command) Result
}

// Runner is the process-spawning Executor. When a command is not captured its
// output goes to Stdout and Stderr so a watching user sees live progress.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a Runner streaming to the process's standard streams.
func New() *Runner {
	return &Runner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes cmd and blocks until it exits. It never panics and never
// returns a partially filled Result.
func (r *Runner) Run(ctx context.Context, cmd Command) (res Result) {
	logger := ctxlog.FromContext(ctx)
	defer func() {
		if p := recover(); p != nil {
			res = failure(-1, fmt.Errorf("unexpected error executing command: %v", p))
		}
	}()

	if len(cmd.Args) == 0 {
		return failure(-1, errors.New("unexpected error executing command: empty command"))
	}
	args := cmd.Args
	if cmd.Shell {
		args = shellArgs(runtime.GOOS, cmd.Args)
	}
	if cmd.Capture {
		logger.Debug("Executing command", "command", cmd.String(), "dir", cmd.Dir)
	} else {
		logger.Info("Executing command", "command", cmd.String())
	}

	c := exec.CommandContext(ctx, args[0], args[1:]...)
	c.Dir = cmd.Dir
	if cmd.Shell {
		setShellCmdLine(c, cmd.Args)
	}
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	var stdout, stderr bytes.Buffer
	if cmd.Capture {
		c.Stdout = &stdout
		c.Stderr = &stderr
	} else {
		c.Stdout = r.stdout()
		c.Stderr = r.stderr()
	}

	err := c.Run()
	res = Result{
		Success: err == nil,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if err == nil {
		return res
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
		res.Err = fmt.Errorf("command failed with exit code %d: %w", res.ExitCode, err)
	case programMissing(err, c.Path):
		return failure(-1, fmt.Errorf("%w: %s: %v", ErrNotFound, args[0], err))
	default:
		return failure(-1, fmt.Errorf("unexpected error executing command: %w", err))
	}
	logger.Debug("Command failed", "command", cmd.String(), "exit_code", res.ExitCode)
	return res
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout == nil {
		return io.Discard
	}
	return r.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr == nil {
		return io.Discard
	}
	return r.Stderr
}

// programMissing reports whether err means the executable itself does not
// exist, as opposed to a missing working directory.
func programMissing(err error, program string) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var pe *fs.PathError
	return errors.As(err, &pe) && pe.Path == program && errors.Is(pe.Err, fs.ErrNotExist)
}

// failure synthesizes a Result whose stderr is the diagnostic.
func failure(code int, err error) Result {
	return Result{ExitCode: code, Stderr: err.Error(), Err: err}
}

// shellArgs wraps args for the host interpreter. A single argument is passed
// through as a script; several are quoted as one command line.
func shellArgs(goos string, args []string) []string {
	if goos == "windows" {
		return append([]string{"cmd", "/C"}, args...)
	}
	if len(args) == 1 {
		return []string{"sh", "-c", args[0]}
	}
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = Quote(a)
	}
	return []string{"sh", "-c", strings.Join(quoted, " ")}
}

// WindowsCmdLine is the raw command line handed to cmd.exe. With /S the
// outer quotes are stripped and the rest is kept verbatim, so arguments
// containing spaces survive when quoted here.
func WindowsCmdLine(args []string) string {
	if len(args) == 1 {
		return `cmd /S /C "` + args[0] + `"`
	}
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t&()[]{}^=;!'+,`~") {
			a = `"` + a + `"`
		}
		quoted[i] = a
	}
	return `cmd /S /C "` + strings.Join(quoted, " ") + `"`
}

// Quote quotes s for a POSIX shell when it contains anything beyond a safe
// set of characters.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=:,+@%", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
