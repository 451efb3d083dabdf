// Package build dispatches a platform build script and verifies the plugin
// binary it produces.
package build

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xpautothrottle/xplbuild/internal/ctxlog"
	"github.com/xpautothrottle/xplbuild/internal/platform"
	"github.com/xpautothrottle/xplbuild/internal/project"
	"github.com/xpautothrottle/xplbuild/internal/runner"
	"github.com/xpautothrottle/xplbuild/internal/ui"
)

// Mode selects between a plain build and a clean build.
type Mode int

const (
	ModeBuild Mode = iota
	ModeClean
)

func (m Mode) String() string {
	if m == ModeClean {
		return "clean"
	}
	return "build"
}

// ParseMode maps an action name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "build":
		return ModeBuild, nil
	case "clean":
		return ModeClean, nil
	}
	return 0, fmt.Errorf("invalid action %q (choose from build, clean)", s)
}

// Outcome is the record of one build run. Artifact is set only when the
// dispatch succeeded and the binary was found.
type Outcome struct {
	Platform  platform.ID
	Mode      Mode
	Success   bool
	Artifact  *Artifact
	StartedAt time.Time
	Duration  time.Duration
}

// ArtifactPath is the expected binary location, whether or not it exists.
func (o *Outcome) ArtifactPath(p *project.Project) string {
	return p.ArtifactPath(o.Platform)
}

// Builder ties dispatch and verification together for a project.
type Builder struct {
	Project    *project.Project
	Dispatcher *Dispatcher
	Verifier   *Verifier
	Out        io.Writer
}

// NewBuilder returns a Builder for p that runs scripts through exec and
// reports to out.
func NewBuilder(p *project.Project, exec runner.Executor, out io.Writer) *Builder {
	return &Builder{
		Project:    p,
		Dispatcher: &Dispatcher{Project: p, Exec: exec},
		Verifier:   &Verifier{Project: p, Out: out},
		Out:        out,
	}
}

// Build dispatches the build for id and, on success, verifies the artifact.
// The returned Outcome is non-nil even when an error is returned.
func (b *Builder) Build(ctx context.Context, id platform.ID, mode Mode) (*Outcome, error) {
	logger := ctxlog.FromContext(ctx)
	out := b.Out
	if out == nil {
		out = io.Discard
	}

	o := &Outcome{Platform: id, Mode: mode, StartedAt: time.Now()}
	defer func() { o.Duration = time.Since(o.StartedAt) }()

	if err := b.Dispatcher.Dispatch(ctx, id, mode == ModeClean); err != nil {
		fmt.Fprintln(out)
		ui.Error(out, "Build failed for %s platform", id)
		fmt.Fprintln(out, "Check the build output above for specific error messages.")
		return o, err
	}

	a, err := b.Verifier.Verify(id)
	if err != nil {
		return o, err
	}
	o.Artifact = a
	o.Success = true
	logger.Debug("Build verified", "platform", id.String(), "path", a.Path, "size", a.Size, "undersized", a.Undersized)
	return o, nil
}
