package cmake

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xpautothrottle/xplbuild/internal/runner"
	"github.com/xpautothrottle/xplbuild/internal/runner/runnertest"
)

func TestConfigureArgs(t *testing.T) {
	fake := runnertest.New()
	buildDir := filepath.Join(t.TempDir(), "linux")

	c := New(fake)
	c.Source("/src/project")
	c.BuildDir(buildDir)
	c.BuildType("Release")
	c.Define("CMAKE_SYSTEM_NAME", "Linux")
	c.Define("XPL_PLUGIN", "XPAutoThrottle")

	res := c.Configure(context.Background(), "--log-level=WARNING")
	if !res.Success {
		t.Fatalf("Configure: %v", res.Err)
	}
	if _, err := os.Stat(buildDir); err != nil {
		t.Fatalf("build dir not created: %v", err)
	}

	calls := fake.CallsTo("cmake")
	if len(calls) != 1 {
		t.Fatalf("cmake calls = %d, want 1", len(calls))
	}
	got := calls[0]
	want := []string{
		"cmake", "-S", "/src/project", "-B", buildDir,
		"-DCMAKE_BUILD_TYPE:STRING=Release",
		"-DCMAKE_SYSTEM_NAME:STRING=Linux",
		"-DXPL_PLUGIN:STRING=XPAutoThrottle",
		"--log-level=WARNING",
	}
	if strings.Join(got.Args, "|") != strings.Join(want, "|") {
		t.Errorf("args =\n%q\nwant\n%q", got.Args, want)
	}
	if !got.Capture {
		t.Error("configure output should be captured")
	}
	if got.Dir != buildDir {
		t.Errorf("Dir = %q, want %q", got.Dir, buildDir)
	}
	if len(got.Env) != 0 {
		t.Errorf("Env = %v, want inherited environment only", got.Env)
	}
}

func TestConfigureFailure(t *testing.T) {
	fake := runnertest.New().Fail("cmake", 1, "CMake Error: bad")
	c := New(fake)
	c.BuildDir(t.TempDir())
	res := c.Configure(context.Background())
	if res.Success || res.ExitCode != 1 || res.Stderr != "CMake Error: bad" {
		t.Fatalf("Configure = %+v", res)
	}
}

func TestVersion(t *testing.T) {
	fake := runnertest.New().Handle("cmake", func(cmd runner.Command) runner.Result {
		return runnertest.OK("cmake version 3.28.3\n\nCMake suite maintained and supported by Kitware (kitware.com/cmake).\n")
	})
	v, err := New(fake).Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v != "3.28.3" {
		t.Errorf("Version = %q, want 3.28.3", v)
	}

	fake.Handle("cmake", func(runner.Command) runner.Result { return runnertest.OK("something else") })
	if _, err := New(fake).Version(context.Background()); err == nil {
		t.Error("Version accepted unrecognized output")
	}

	fake.Fail("cmake", 127, "")
	if _, err := New(fake).Version(context.Background()); err == nil {
		t.Error("Version succeeded when cmake failed")
	}
}

func TestParseMinimumRequired(t *testing.T) {
	tests := []struct {
		content string
		want    string
		ok      bool
	}{
		{"cmake_minimum_required(VERSION 3.16)\nproject(x)", "3.16", true},
		{"CMAKE_MINIMUM_REQUIRED( VERSION 3.10.2 )", "3.10.2", true},
		{"cmake_minimum_required(VERSION 3.10...3.28)", "3.10", true},
		{"project(x)", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseMinimumRequired(tt.content)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseMinimumRequired(%q) = %q, %v; want %q, %v", tt.content, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSemVer(t *testing.T) {
	tests := map[string]string{
		"3.28.3":             "v3.28.3",
		"3.16":               "v3.16",
		"3.29.20240111-gabc": "v3.29.20240111",
		"3.16.0.1":           "v3.16.0",
		"4":                  "v4",
		"dev":                "",
	}
	for in, want := range tests {
		if got := SemVer(in); got != want {
			t.Errorf("SemVer(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfigureE2E(t *testing.T) {
	if _, err := exec.LookPath("cmake"); err != nil {
		t.Skip("cmake not found in PATH")
	}

	buildDir := filepath.Join(t.TempDir(), "build")
	sourceDir, err := filepath.Abs(filepath.Join("testdata", "project"))
	if err != nil {
		t.Fatal(err)
	}

	c := New(runner.New())
	c.Source(sourceDir)
	c.BuildDir(buildDir)
	c.BuildType("Release")
	c.Define("FOO", "BAR")

	if res := c.Configure(context.Background()); !res.Success {
		t.Fatalf("configure: %v\n%s", res.Err, res.Stderr)
	}

	cache := filepath.Join(buildDir, "CMakeCache.txt")
	data, err := os.ReadFile(cache)
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	content := string(data)
	for _, snippet := range []string{
		"FOO:STRING=BAR",
		"CMAKE_BUILD_TYPE:STRING=Release",
	} {
		if !strings.Contains(content, snippet) {
			t.Fatalf("cache missing %q", snippet)
		}
	}

	v, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if SemVer(v) == "" {
		t.Errorf("Version %q is not numeric", v)
	}
}
