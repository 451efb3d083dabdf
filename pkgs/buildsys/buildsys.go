package buildsys

import (
	"context"

	"github.com/xpautothrottle/xplbuild/internal/runner"
)

// BuildSystem captures what the configuration checks need from the native
// build system: an isolated configure step and the installed tool version.
type BuildSystem interface {
	// Basic paths.
	Source(dir string)
	BuildDir(dir string)

	// Configuration inputs.
	Define(key, val string)
	BuildType(name string)

	// Configure generates build files into the build dir without compiling.
	Configure(ctx context.Context, args ...string) runner.Result

	// Version reports the installed tool version, e.g. "3.28.3".
	Version(ctx context.Context) (string, error)
}
