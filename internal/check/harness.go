// Package check validates a plugin project's cross-platform build
// configuration: required files, export lists, build scripts, SDK library
// formats and a CMake configuration dry run per platform.
//
// Every check is isolated. A check that fails or panics is recorded as
// failed and the remaining checks still run, so the Report always covers
// the whole project.
package check

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/xpautothrottle/xplbuild/internal/ctxlog"
	"github.com/xpautothrottle/xplbuild/internal/project"
	"github.com/xpautothrottle/xplbuild/internal/runner"
	"github.com/xpautothrottle/xplbuild/internal/ui"
	"github.com/xpautothrottle/xplbuild/pkgs/buildsys"
	"github.com/xpautothrottle/xplbuild/pkgs/buildsys/cmake"
)

// Check is one named validation. Run returns nil when the check passes.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// Observer is notified as checks start and finish.
type Observer interface {
	CheckStarted(name string, index, total int)
	CheckFinished(r Result)
}

// Harness runs the configuration checks against a project.
type Harness struct {
	Project *project.Project
	Exec    runner.Executor

	// Self is the orchestrator executable whose help path is exercised.
	Self string

	// NewBuildSystem returns a fresh build system for each dry run.
	NewBuildSystem func() buildsys.BuildSystem

	Out      io.Writer
	Observer Observer
	RunID    string

	// Scratch directories made by the current run.
	created  []string
	ownsRoot bool
}

// New returns a Harness for p using CMake through exec.
func New(p *project.Project, exec runner.Executor, out io.Writer) *Harness {
	self, err := os.Executable()
	if err != nil {
		self = os.Args[0]
	}
	return &Harness{
		Project: p,
		Exec:    exec,
		Self:    self,
		NewBuildSystem: func() buildsys.BuildSystem {
			return cmake.New(exec)
		},
		Out: out,
	}
}

func (h *Harness) out() io.Writer {
	if h.Out == nil {
		return io.Discard
	}
	return h.Out
}

// Run executes every check in order and removes the scratch directory
// afterwards, whatever the outcome. It never panics.
func (h *Harness) Run(ctx context.Context) *Report {
	logger := ctxlog.FromContext(ctx)
	checks := h.Checks()
	report := &Report{
		RunID:     h.RunID,
		Root:      h.Project.Root,
		StartedAt: time.Now(),
		Total:     len(checks),
	}

	h.created = nil
	_, err := os.Stat(h.ScratchRoot())
	h.ownsRoot = os.IsNotExist(err)

	func() {
		defer h.cleanup(ctx)
		for i, c := range checks {
			if h.Observer != nil {
				h.Observer.CheckStarted(c.Name, i, len(checks))
			}
			r := h.runCheck(ctx, c)
			report.add(r)
			if h.Observer != nil {
				h.Observer.CheckFinished(r)
			}
		}
	}()

	report.Duration = time.Since(report.StartedAt)
	logger.Debug("Checks finished", "passed", report.Passed, "total", report.Total, "duration", report.Duration)
	return report
}

func (h *Harness) runCheck(ctx context.Context, c Check) (r Result) {
	out := h.out()
	start := time.Now()
	r.Name = c.Name
	defer func() {
		if p := recover(); p != nil {
			r.Passed = false
			r.Error = fmt.Sprintf("panic: %v", p)
			fmt.Fprintln(out)
			ui.Error(out, "%s test error: %v", c.Name, p)
		}
		r.Duration = time.Since(start)
		r.DurationMS = r.Duration.Milliseconds()
	}()

	if err := ctx.Err(); err != nil {
		r.Error = err.Error()
		return r
	}
	if err := c.Run(ctx); err != nil {
		r.Error = err.Error()
		fmt.Fprintln(out)
		ui.Warning(out, "%s test failed", c.Name)
		ctxlog.FromContext(ctx).Debug("Check failed", "check", c.Name, "err", err)
		return r
	}
	r.Passed = true
	return r
}

// ScratchRoot is the directory holding the per-platform dry runs.
func (h *Harness) ScratchRoot() string {
	return h.Project.Path(h.Project.Config.ScratchDir)
}

// mkScratch creates a fresh scratch directory and records it for cleanup.
func (h *Harness) mkScratch(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	h.created = append(h.created, dir)
	return nil
}

// cleanup removes the directories this run created. A scratch root that
// existed before the run is removed only once it is empty.
func (h *Harness) cleanup(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	for _, dir := range h.created {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("Failed to remove scratch directory", "path", dir, "err", err)
		}
	}
	h.created = nil

	root := h.ScratchRoot()
	if root == h.Project.Root {
		return
	}
	if h.ownsRoot {
		if err := os.RemoveAll(root); err != nil {
			logger.Warn("Failed to remove scratch directory", "path", root, "err", err)
		}
		return
	}
	if err := os.Remove(root); err != nil && !os.IsNotExist(err) {
		logger.Debug("Keeping scratch directory", "path", root, "err", err)
	}
}
