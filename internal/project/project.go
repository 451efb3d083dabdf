// Package project locates the plugin project on disk and holds its build
// configuration: compiled-in defaults overlaid with an optional xplbuild.hcl.
package project

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/xpautothrottle/xplbuild/internal/platform"
)

// Project markers that must exist at the root before a build.
const (
	CMakeLists = "CMakeLists.txt"
	SDKDir     = "SDK"
	BuildDir   = "build"
)

var (
	ErrNotProjectRoot = errors.New("current directory is not a valid project directory (CMakeLists.txt not found)")
	ErrSDKMissing     = errors.New("SDK directory not found")
)

// Library is a third-party binary whose format is checked with file(1).
type Library struct {
	Path     string // relative to the project root
	Platform platform.ID
	Expect   string // substring of the file(1) description
}

// Config is the resolved project configuration.
type Config struct {
	PluginName        string
	InstallPath       string
	MinArtifactSize   int64
	MinGeneratedFiles int
	ScratchDir        string
	RequiredFiles     []string
	ShellScripts      []string
	Libraries         []Library
}

// Defaults returns the configuration of the XPAutoThrottle project layout.
func Defaults() Config {
	return Config{
		PluginName:        "XPAutoThrottle",
		InstallPath:       "X-Plane/Resources/plugins",
		MinArtifactSize:   10 * 1024,
		MinGeneratedFiles: 3,
		ScratchDir:        "test_builds",
		RequiredFiles: []string{
			CMakeLists,
			platform.Mac.ExportsFile(),
			platform.Windows.ExportsFile(),
			platform.Linux.ExportsFile(),
			platform.Mac.EntryPoint(),
			platform.Windows.EntryPoint(),
			platform.Linux.EntryPoint(),
			"SDK/Libraries/Mac/XPLM.framework",
			"SDK/Libraries/Win/XPLM_64.lib",
			"SDK/Libraries/Win/XPWidgets_64.lib",
			"SDK/Libraries/Lin/XPLM_64.so",
			"SDK/Libraries/Lin/XPWidgets_64.so",
			"src/plugin.cpp",
		},
		ShellScripts: []string{
			platform.Mac.EntryPoint(),
			platform.Linux.EntryPoint(),
		},
		Libraries: []Library{
			{Path: "SDK/Libraries/Win/XPLM_64.lib", Platform: platform.Windows, Expect: "current ar archive"},
			{Path: "SDK/Libraries/Win/XPWidgets_64.lib", Platform: platform.Windows, Expect: "current ar archive"},
			{Path: "SDK/Libraries/Lin/XPLM_64.so", Platform: platform.Linux, Expect: "ELF 64-bit LSB shared object"},
			{Path: "SDK/Libraries/Mac/XPLM.framework/XPLM", Platform: platform.Mac, Expect: "Mach-O"},
		},
	}
}

// Project is a plugin source tree.
type Project struct {
	Root   string
	Config Config
	// HasManifest is set when xplbuild.hcl was found and applied.
	HasManifest bool
}

// Open loads the project at root. A missing manifest is not an error.
func Open(root string) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	p := &Project{Root: abs, Config: Defaults()}

	manifest := p.Path(ManifestFile)
	ok, err := manifestExists(manifest)
	if err != nil {
		return nil, err
	}
	if ok {
		m, err := ParseManifest(manifest)
		if err != nil {
			return nil, err
		}
		m.apply(&p.Config)
		if err := p.Config.checkScratch(); err != nil {
			return nil, fmt.Errorf("invalid manifest %s: %w", manifest, err)
		}
		p.HasManifest = true
	}
	return p, nil
}

// checkScratch rejects a scratch directory that is, or contains, a project
// marker or any file the checks inspect.
func (c *Config) checkScratch() error {
	scratch := path.Clean(filepath.ToSlash(c.ScratchDir))
	protected := []string{SDKDir, BuildDir}
	protected = append(protected, c.RequiredFiles...)
	protected = append(protected, c.ShellScripts...)
	for _, lib := range c.Libraries {
		protected = append(protected, lib.Path)
	}
	for _, p := range protected {
		p = path.Clean(filepath.ToSlash(p))
		if p == scratch || strings.HasPrefix(p, scratch+"/") {
			return fmt.Errorf("scratch_dir %q would contain project path %s", c.ScratchDir, p)
		}
	}
	return nil
}

// Path joins rel onto the project root.
func (p *Project) Path(rel string) string {
	return filepath.Join(p.Root, filepath.FromSlash(rel))
}

// Exists reports whether rel exists under the project root.
func (p *Project) Exists(rel string) bool {
	_, err := os.Stat(p.Path(rel))
	return err == nil
}

// BuildDir is where the platform scripts place their output.
func (p *Project) BuildDir() string {
	return p.Path(BuildDir)
}

// ArtifactPath is the expected plugin binary for id.
func (p *Project) ArtifactPath(id platform.ID) string {
	return filepath.Join(p.BuildDir(), id.OutputName())
}

// CheckRoot verifies the build-system marker, which identifies a project root.
func (p *Project) CheckRoot() error {
	if !p.Exists(CMakeLists) {
		return fmt.Errorf("%s: %w", p.Root, ErrNotProjectRoot)
	}
	return nil
}

// CheckMarkers verifies everything that must exist before a build is dispatched.
func (p *Project) CheckMarkers() error {
	if err := p.CheckRoot(); err != nil {
		return err
	}
	info, err := os.Stat(p.Path(SDKDir))
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s: %w", p.Root, ErrSDKMissing)
	}
	return nil
}
