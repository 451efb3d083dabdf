package check

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	qerrors "github.com/qiniu/x/errors"
	"golang.org/x/mod/semver"

	"github.com/xpautothrottle/xplbuild/internal/exports"
	"github.com/xpautothrottle/xplbuild/internal/platform"
	"github.com/xpautothrottle/xplbuild/internal/project"
	"github.com/xpautothrottle/xplbuild/internal/runner"
	"github.com/xpautothrottle/xplbuild/internal/ui"
	"github.com/xpautothrottle/xplbuild/pkgs/buildsys/cmake"
)

// Check names as they appear in the report.
const (
	FileExistence     = "File Existence"
	SymbolExportFiles = "Symbol Export Files"
	BuildScriptSyntax = "Build Script Syntax"
	SDKLibraryFiles   = "SDK Library Files"
	CMakeVersion      = "CMake Version"
)

// ConfigurationCheckName is the report name of the dry run for id.
func ConfigurationCheckName(id platform.ID) string {
	return id.DisplayName() + " CMake Configuration"
}

// Files larger than this are skipped when searching generated configuration.
const maxScanSize = 8 << 20

// Checks returns the checks Run executes, in order.
func (h *Harness) Checks() []Check {
	checks := []Check{
		{FileExistence, h.checkFileExistence},
		{SymbolExportFiles, h.checkExportFiles},
		{BuildScriptSyntax, h.checkBuildScripts},
		{SDKLibraryFiles, h.checkLibraries},
		{CMakeVersion, h.checkCMakeVersion},
	}
	for _, id := range platform.All() {
		checks = append(checks, Check{
			Name: ConfigurationCheckName(id),
			Run: func(ctx context.Context) error {
				return h.checkConfiguration(ctx, id)
			},
		})
	}
	return checks
}

func (h *Harness) checkFileExistence(ctx context.Context) error {
	out := h.out()
	ui.Printf(out, ui.TagCheck, "Testing file existence...")

	var missing []string
	for _, f := range h.Project.Config.RequiredFiles {
		if !h.Project.Exists(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		ui.Error(out, "Missing files: %s", strings.Join(missing, ", "))
		return fmt.Errorf("missing files: %s", strings.Join(missing, ", "))
	}
	ui.Success(out, "All required files exist")
	return nil
}

func (h *Harness) checkExportFiles(ctx context.Context) error {
	out := h.out()
	fmt.Fprintln(out)
	ui.Printf(out, ui.TagCheck, "Testing symbol export files...")

	var errs qerrors.List
	for _, id := range []platform.ID{platform.Mac, platform.Windows, platform.Linux} {
		if err := exports.CheckFile(h.Project.Root, id); err != nil {
			ui.Error(out, "%s exports: Format incorrect", id.DisplayName())
			errs.Add(err)
			continue
		}
		ui.Success(out, "%s exports: Format correct", id.DisplayName())
	}
	return errs.ToError()
}

func (h *Harness) checkBuildScripts(ctx context.Context) error {
	out := h.out()
	fmt.Fprintln(out)
	ui.Printf(out, ui.TagCheck, "Testing build script syntax...")

	var errs qerrors.List
	report := func(name string, err error) {
		if err != nil {
			ui.Error(out, "%s: Syntax error", name)
			errs.Add(fmt.Errorf("%s: %w", name, err))
			return
		}
		ui.Success(out, "%s: Syntax correct", name)
	}

	for _, script := range h.Project.Config.ShellScripts {
		res := h.Exec.Run(ctx, runner.Command{
			Args:    []string{"bash", "-n", script},
			Dir:     h.Project.Root,
			Capture: true,
		})
		report(script, resultErr(res))
	}

	// The orchestrator's own definition is its manifest; parse it without
	// running anything.
	if h.Project.Exists(project.ManifestFile) {
		_, err := project.ParseManifest(h.Project.Path(project.ManifestFile))
		report(project.ManifestFile, err)
	}

	name := filepath.Base(h.Self)
	res := h.Exec.Run(ctx, runner.Command{
		Args:    []string{h.Self, "--help"},
		Dir:     h.Project.Root,
		Capture: true,
	})
	report(name+" --help", resultErr(res))

	return errs.ToError()
}

func (h *Harness) checkLibraries(ctx context.Context) error {
	out := h.out()
	fmt.Fprintln(out)
	ui.Printf(out, ui.TagCheck, "Testing SDK library files...")

	var errs qerrors.List
	for _, lib := range h.Project.Config.Libraries {
		name := strings.TrimPrefix(lib.Path, "SDK/Libraries/")
		if !h.Project.Exists(lib.Path) {
			ui.Error(out, "%s: File does not exist", name)
			errs.Add(fmt.Errorf("%s: file does not exist", name))
			continue
		}
		res := h.Exec.Run(ctx, runner.Command{
			Args:    []string{"file", h.Project.Path(lib.Path)},
			Capture: true,
		})
		if !res.Success || !strings.Contains(res.Stdout, lib.Expect) {
			ui.Error(out, "%s: Format incorrect or cannot detect", name)
			errs.Add(fmt.Errorf("%s: expected %q, file reported %q", name, lib.Expect, strings.TrimSpace(res.Stdout+res.Stderr)))
			continue
		}
		ui.Success(out, "%s: Format correct (%s)", name, lib.Expect)
	}
	return errs.ToError()
}

func (h *Harness) checkCMakeVersion(ctx context.Context) error {
	out := h.out()
	fmt.Fprintln(out)
	ui.Printf(out, ui.TagCheck, "Testing CMake version...")

	data, err := os.ReadFile(h.Project.Path(project.CMakeLists))
	if err != nil {
		ui.Error(out, "Cannot read %s", project.CMakeLists)
		return err
	}
	installed, err := h.NewBuildSystem().Version(ctx)
	if err != nil {
		ui.Error(out, "CMake not available")
		return err
	}

	minimum, ok := cmake.ParseMinimumRequired(string(data))
	if !ok {
		ui.Success(out, "CMake %s (no minimum version declared)", installed)
		return nil
	}
	have, want := cmake.SemVer(installed), cmake.SemVer(minimum)
	if have == "" || semver.Compare(have, want) < 0 {
		ui.Error(out, "CMake %s is older than the required %s", installed, minimum)
		return fmt.Errorf("cmake %s does not satisfy cmake_minimum_required(VERSION %s)", installed, minimum)
	}
	ui.Success(out, "CMake %s satisfies minimum %s", installed, minimum)
	return nil
}

func (h *Harness) checkConfiguration(ctx context.Context, id platform.ID) error {
	out := h.out()
	cfg := h.Project.Config
	fmt.Fprintln(out)
	ui.Printf(out, ui.TagCheck, "Testing %s platform CMake configuration...", id)

	dir := filepath.Join(h.ScratchRoot(), id.String())
	if err := h.mkScratch(dir); err != nil {
		return err
	}

	bs := h.NewBuildSystem()
	bs.Source(h.Project.Root)
	bs.BuildDir(dir)
	if name := id.SystemName(); name != "" {
		bs.Define("CMAKE_SYSTEM_NAME", name)
	}
	bs.BuildType("Release")

	res := bs.Configure(ctx)
	if !res.Success {
		ui.Error(out, "%s: CMake configuration failed", id)
		fmt.Fprintf(out, "Error: %s\n", strings.TrimSpace(res.Stderr))
		return fmt.Errorf("cmake configuration failed: %w", res.Err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) < cfg.MinGeneratedFiles {
		ui.Error(out, "%s: Too few build files generated", id)
		return fmt.Errorf("%d build files generated, want at least %d", len(entries), cfg.MinGeneratedFiles)
	}

	found, err := containsText(dir, id.OutputName())
	if err != nil {
		return err
	}
	if !found {
		ui.Error(out, "%s: Expected output file configuration not found", id)
		return fmt.Errorf("no generated file mentions %s", id.OutputName())
	}
	ui.Success(out, "%s: CMake configuration correct, output file set to %s", id, id.OutputName())
	return nil
}

// containsText reports whether any regular file under dir contains text.
// Unreadable files are skipped.
func containsText(dir, text string) (bool, error) {
	needle := []byte(text)
	found := false
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > maxScanSize {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if bytes.Contains(data, needle) {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found, err
}

func resultErr(res runner.Result) error {
	if res.Success {
		return nil
	}
	if res.Err != nil {
		return res.Err
	}
	return errors.New("command failed")
}
