package build

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/xpautothrottle/xplbuild/internal/platform"
	"github.com/xpautothrottle/xplbuild/internal/project"
	"github.com/xpautothrottle/xplbuild/internal/ui"
)

var ErrArtifactMissing = errors.New("output file not found")

// Artifact describes a plugin binary found after a build.
type Artifact struct {
	Path       string
	Size       int64
	ModTime    time.Time
	Undersized bool // present but below the minimum size heuristic
}

// Verifier checks the build output of a successful dispatch.
type Verifier struct {
	Project *project.Project
	Out     io.Writer
}

// Verify looks for the plugin binary of id under build/. A binary smaller
// than the configured minimum is reported with a warning but still verifies;
// a missing binary is an error.
func (v *Verifier) Verify(id platform.ID) (*Artifact, error) {
	out := v.Out
	if out == nil {
		out = io.Discard
	}
	cfg := v.Project.Config
	name := id.OutputName()
	file := v.Project.ArtifactPath(id)

	info, err := os.Stat(file)
	if err != nil || info.IsDir() {
		fmt.Fprintln(out)
		ui.Warning(out, "Build seems successful, but output file not found: %s", name)
		fmt.Fprintf(out, "Expected location: %s/%s\n", project.BuildDir, name)
		if entries, lerr := listDir(v.Project.BuildDir()); lerr == nil {
			fmt.Fprintln(out, "Build directory contents:")
			for _, e := range entries {
				fmt.Fprintf(out, "  %s\n", e)
			}
		}
		return nil, fmt.Errorf("%s: %w", file, ErrArtifactMissing)
	}

	a := &Artifact{
		Path:    file,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	fmt.Fprintln(out)
	ui.Success(out, "Build successful!")
	fmt.Fprintf(out, "Output file: %s\n", a.Path)
	fmt.Fprintf(out, "File size: %.1f KB\n", float64(a.Size)/1024)
	fmt.Fprintf(out, "Build date: %s\n", a.ModTime.Local().Format(time.DateTime))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s Copy %s to:\n", ui.Tag{Label: "INSTALLATION", Style: ui.TagInfo.Style}, name)
	fmt.Fprintf(out, "  %s\n", path.Join(cfg.InstallPath, cfg.PluginName, name))

	if a.Size < cfg.MinArtifactSize {
		a.Undersized = true
		fmt.Fprintln(out)
		ui.Warning(out, "Plugin file is unusually small (%d bytes)", a.Size)
		fmt.Fprintln(out, "This might indicate a build issue.")
	}
	return a, nil
}

func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
