package build

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/xpautothrottle/xplbuild/internal/ctxlog"
	"github.com/xpautothrottle/xplbuild/internal/platform"
	"github.com/xpautothrottle/xplbuild/internal/project"
	"github.com/xpautothrottle/xplbuild/internal/runner"
)

var (
	ErrEntryPointMissing = errors.New("build script not found")
	ErrDispatchFailed    = errors.New("build script failed")
)

// Dispatcher runs the platform build script of a project.
type Dispatcher struct {
	Project *project.Project
	Exec    runner.Executor
}

// EntryPoint is the absolute path of the build script for id.
func (d *Dispatcher) EntryPoint(id platform.ID) string {
	return d.Project.Path(id.EntryPoint())
}

// Dispatch invokes the build script for id, passing "clean" when clean is set.
// It succeeds exactly when the script exits zero.
func (d *Dispatcher) Dispatch(ctx context.Context, id platform.ID, clean bool) error {
	logger := ctxlog.FromContext(ctx).With("platform", id.String())

	script := d.EntryPoint(id)
	if _, err := os.Stat(script); err != nil {
		logger.Error("Cannot find build script", "path", script)
		return fmt.Errorf("cannot find %s: %w", id.EntryPoint(), ErrEntryPointMissing)
	}

	if !id.UsesShell() {
		if err := ensureExecutable(script); err != nil {
			return fmt.Errorf("make %s executable: %w", id.EntryPoint(), err)
		}
	}

	args := []string{script}
	if clean {
		args = append(args, "clean")
	}
	res := d.Exec.Run(ctx, runner.Command{
		Args:  args,
		Shell: id.UsesShell(),
		Dir:   d.Project.Root,
	})
	if !res.Success {
		logger.Error("Build script failed", "exit_code", res.ExitCode, "err", res.Err)
		return fmt.Errorf("%w: %s: %v", ErrDispatchFailed, id.EntryPoint(), res.Err)
	}
	return nil
}
