package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	qerrors "github.com/qiniu/x/errors"

	"github.com/xpautothrottle/xplbuild/internal/platform"
)

// ManifestFile is the optional project manifest at the root.
const ManifestFile = "xplbuild.hcl"

// Manifest is the decoded form of xplbuild.hcl. Every field is optional;
// unset fields keep their defaults.
//
//	plugin "XPAutoThrottle" {
//	  install_path        = "X-Plane/Resources/plugins"
//	  min_artifact_size   = 10240
//	  min_generated_files = 3
//	}
//
//	scratch_dir          = "test_builds"
//	extra_required_files = ["README.md"]
//	shell_scripts        = ["build.sh", "build_linux.sh"]
//
//	library "SDK/Libraries/Lin/XPLM_64.so" {
//	  platform = "linux"
//	  expect   = "ELF 64-bit LSB shared object"
//	}
type Manifest struct {
	Plugin             *PluginBlock   `hcl:"plugin,block"`
	ScratchDir         string         `hcl:"scratch_dir,optional"`
	ExtraRequiredFiles []string       `hcl:"extra_required_files,optional"`
	ShellScripts       []string       `hcl:"shell_scripts,optional"`
	Libraries          []LibraryBlock `hcl:"library,block"`
}

type PluginBlock struct {
	Name              string `hcl:"name,label"`
	InstallPath       string `hcl:"install_path,optional"`
	MinArtifactSize   int64  `hcl:"min_artifact_size,optional"`
	MinGeneratedFiles int    `hcl:"min_generated_files,optional"`
}

type LibraryBlock struct {
	Path     string `hcl:"path,label"`
	Platform string `hcl:"platform"`
	Expect   string `hcl:"expect"`
}

// ParseManifest parses and decodes the manifest at path without applying it.
func ParseManifest(path string) (*Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", path, diags.Error())
	}

	var m Manifest
	diags = gohcl.DecodeBody(file.Body, nil, &m)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %s", path, diags.Error())
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	var errs qerrors.List
	if p := m.Plugin; p != nil {
		if p.Name == "" {
			errs.Add(fmt.Errorf("plugin name must not be empty"))
		}
		if p.MinArtifactSize < 0 {
			errs.Add(fmt.Errorf("min_artifact_size must not be negative, got %d", p.MinArtifactSize))
		}
		if p.MinGeneratedFiles < 0 {
			errs.Add(fmt.Errorf("min_generated_files must not be negative, got %d", p.MinGeneratedFiles))
		}
	}
	if m.ScratchDir != "" {
		dir := filepath.Clean(m.ScratchDir)
		if dir == "." || filepath.IsAbs(dir) || strings.HasPrefix(m.ScratchDir, "/") || dir == ".." || strings.HasPrefix(dir, ".."+string(filepath.Separator)) {
			errs.Add(fmt.Errorf("scratch_dir must be a subdirectory of the project, got %q", m.ScratchDir))
		}
	}
	for _, lib := range m.Libraries {
		if _, err := platform.Parse(lib.Platform); err != nil {
			errs.Add(fmt.Errorf("library %s: %w", lib.Path, err))
		}
		if lib.Expect == "" {
			errs.Add(fmt.Errorf("library %s: expect must not be empty", lib.Path))
		}
	}
	return errs.ToError()
}

// apply overlays the manifest onto cfg.
func (m *Manifest) apply(cfg *Config) {
	if p := m.Plugin; p != nil {
		cfg.PluginName = p.Name
		if p.InstallPath != "" {
			cfg.InstallPath = p.InstallPath
		}
		if p.MinArtifactSize > 0 {
			cfg.MinArtifactSize = p.MinArtifactSize
		}
		if p.MinGeneratedFiles > 0 {
			cfg.MinGeneratedFiles = p.MinGeneratedFiles
		}
	}
	if m.ScratchDir != "" {
		cfg.ScratchDir = m.ScratchDir
	}
	cfg.RequiredFiles = append(cfg.RequiredFiles, m.ExtraRequiredFiles...)
	if len(m.ShellScripts) > 0 {
		cfg.ShellScripts = append([]string(nil), m.ShellScripts...)
	}
	if len(m.Libraries) > 0 {
		cfg.Libraries = nil
		for _, lib := range m.Libraries {
			id, _ := platform.Parse(lib.Platform)
			cfg.Libraries = append(cfg.Libraries, Library{Path: lib.Path, Platform: id, Expect: lib.Expect})
		}
	}
}

func manifestExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
