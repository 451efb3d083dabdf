package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xpautothrottle/xplbuild/internal/platform"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestOpenDefaults(t *testing.T) {
	root := t.TempDir()
	p, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if p.HasManifest {
		t.Error("HasManifest set without xplbuild.hcl")
	}
	cfg := p.Config
	if cfg.MinArtifactSize != 10240 || cfg.MinGeneratedFiles != 3 {
		t.Errorf("thresholds = %d/%d, want 10240/3", cfg.MinArtifactSize, cfg.MinGeneratedFiles)
	}
	if cfg.PluginName != "XPAutoThrottle" || cfg.ScratchDir != "test_builds" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.RequiredFiles) != 13 {
		t.Errorf("len(RequiredFiles) = %d, want 13", len(cfg.RequiredFiles))
	}
	if len(cfg.Libraries) != 4 {
		t.Errorf("len(Libraries) = %d, want 4", len(cfg.Libraries))
	}
	if got := p.ArtifactPath(platform.Linux); got != filepath.Join(p.Root, "build", "lin.xpl") {
		t.Errorf("ArtifactPath(linux) = %q", got)
	}
}

func TestDefaultsAreIndependent(t *testing.T) {
	a := Defaults()
	a.RequiredFiles[0] = "changed"
	a.Libraries[0].Expect = "changed"
	b := Defaults()
	if b.RequiredFiles[0] != CMakeLists || b.Libraries[0].Expect != "current ar archive" {
		t.Fatal("Defaults() returned shared slices")
	}
}

func TestOpenManifest(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestFile), `
plugin "MyPlugin" {
  install_path        = "Custom/plugins"
  min_artifact_size   = 4096
  min_generated_files = 5
}

scratch_dir          = "scratch"
extra_required_files = ["README.md"]
shell_scripts        = ["build_linux.sh"]

library "SDK/Libraries/Lin/XPLM_64.so" {
  platform = "linux"
  expect   = "ELF 64-bit LSB shared object"
}
`)
	p, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !p.HasManifest {
		t.Fatal("HasManifest not set")
	}
	cfg := p.Config
	if cfg.PluginName != "MyPlugin" || cfg.InstallPath != "Custom/plugins" {
		t.Errorf("plugin block not applied: %+v", cfg)
	}
	if cfg.MinArtifactSize != 4096 || cfg.MinGeneratedFiles != 5 {
		t.Errorf("thresholds = %d/%d, want 4096/5", cfg.MinArtifactSize, cfg.MinGeneratedFiles)
	}
	if cfg.ScratchDir != "scratch" {
		t.Errorf("ScratchDir = %q", cfg.ScratchDir)
	}
	if last := cfg.RequiredFiles[len(cfg.RequiredFiles)-1]; last != "README.md" || len(cfg.RequiredFiles) != 14 {
		t.Errorf("RequiredFiles = %v", cfg.RequiredFiles)
	}
	if len(cfg.ShellScripts) != 1 || cfg.ShellScripts[0] != "build_linux.sh" {
		t.Errorf("ShellScripts = %v", cfg.ShellScripts)
	}
	if len(cfg.Libraries) != 1 || cfg.Libraries[0].Platform != platform.Linux {
		t.Errorf("Libraries = %+v", cfg.Libraries)
	}
}

func TestOpenManifestPartial(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestFile), `scratch_dir = "tmp_builds"`)
	p, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if p.Config.ScratchDir != "tmp_builds" {
		t.Errorf("ScratchDir = %q", p.Config.ScratchDir)
	}
	if p.Config.MinArtifactSize != 10240 || len(p.Config.Libraries) != 4 {
		t.Errorf("defaults lost: %+v", p.Config)
	}
}

func TestOpenManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", `plugin "x" {`, "failed to parse"},
		{"unknown attribute", `colour = "red"`, "failed to decode"},
		{"bad platform", `
library "a.so" {
  platform = "beos"
  expect   = "ELF"
}`, "unsupported platform"},
		{"negative size", `
plugin "p" {
  min_artifact_size = -1
}`, "min_artifact_size"},
		{"multiple problems", `
plugin "" {
  min_generated_files = -2
}
library "b.so" {
  platform = "linux"
  expect   = ""
}`, "expect must not be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, filepath.Join(root, ManifestFile), tt.content)
			_, err := Open(root)
			if err == nil {
				t.Fatal("Open succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestCheckMarkers(t *testing.T) {
	root := t.TempDir()
	p, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := p.CheckMarkers(); !errors.Is(err, ErrNotProjectRoot) {
		t.Fatalf("CheckMarkers() = %v, want ErrNotProjectRoot", err)
	}

	writeFile(t, filepath.Join(root, CMakeLists), "project(x)\n")
	if err := p.CheckRoot(); err != nil {
		t.Fatalf("CheckRoot() = %v", err)
	}
	if err := p.CheckMarkers(); !errors.Is(err, ErrSDKMissing) {
		t.Fatalf("CheckMarkers() = %v, want ErrSDKMissing", err)
	}

	// A file named SDK is not the SDK directory.
	writeFile(t, filepath.Join(root, SDKDir), "")
	if err := p.CheckMarkers(); !errors.Is(err, ErrSDKMissing) {
		t.Fatalf("CheckMarkers() with SDK file = %v, want ErrSDKMissing", err)
	}
	if err := os.Remove(filepath.Join(root, SDKDir)); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, SDKDir), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := p.CheckMarkers(); err != nil {
		t.Fatalf("CheckMarkers() = %v, want nil", err)
	}
}

func TestManifestRejectsScratchOutsideProject(t *testing.T) {
	for _, dir := range []string{".", "..", "../x", "/tmp/x", "a/../.."} {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, ManifestFile), `scratch_dir = "`+dir+`"`)
		if _, err := Open(root); err == nil || !strings.Contains(err.Error(), "scratch_dir") {
			t.Errorf("scratch_dir %q: Open error = %v", dir, err)
		}
	}
}

func TestManifestRejectsScratchOverProjectFiles(t *testing.T) {
	for _, dir := range []string{"src", "./src", "SDK", "SDK/Libraries", "build", "build.sh"} {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, ManifestFile), `scratch_dir = "`+dir+`"`)
		if _, err := Open(root); err == nil || !strings.Contains(err.Error(), "would contain project path") {
			t.Errorf("scratch_dir %q: Open error = %v", dir, err)
		}
	}

	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestFile), `scratch_dir = "src_scratch/dry"`)
	if _, err := Open(root); err != nil {
		t.Errorf("unrelated scratch_dir rejected: %v", err)
	}
}
