package cmake

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/xpautothrottle/xplbuild/internal/runner"
	"github.com/xpautothrottle/xplbuild/pkgs/buildsys"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake wraps the cmake configure step.
type CMake struct {
	exec      runner.Executor
	bin       string
	SourceDir string
	buildDir  string
	Defines   map[string]defineValue
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a CMake helper that runs cmake through exec.
func New(exec runner.Executor) *CMake {
	return &CMake{
		exec:     exec,
		bin:      "cmake",
		buildDir: "build",
		Defines:  map[string]defineValue{},
	}
}

func (c *CMake) Source(dir string) {
	c.SourceDir = dir
}

func (c *CMake) BuildDir(dir string) {
	c.buildDir = dir
}

// BuildType sets CMAKE_BUILD_TYPE, e.g. "Release".
func (c *CMake) BuildType(name string) {
	c.Define("CMAKE_BUILD_TYPE", name)
}

func (c *CMake) Define(key, value string) {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	c.Defines[key] = defineValue{value: value, typeName: "STRING"}
}

// Configure runs the configure step with output captured, so a failing dry
// run can report cmake's stderr.
func (c *CMake) Configure(ctx context.Context, args ...string) runner.Result {
	if err := os.MkdirAll(c.buildDir, 0755); err != nil {
		return runner.Result{ExitCode: -1, Stderr: err.Error(), Err: err}
	}
	return c.exec.Run(ctx, runner.Command{
		Args:    c.ConfigureArgs(args...),
		Dir:     c.buildDir,
		Capture: true,
	})
}

// ConfigureArgs returns the full cmake command line Configure would run.
func (c *CMake) ConfigureArgs(args ...string) []string {
	cmakeArgs := []string{c.bin, "-S", c.SourceDir, "-B", c.buildDir}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	return append(cmakeArgs, args...)
}

var versionRe = regexp.MustCompile(`cmake version (\S+)`)

// Version returns the version reported by cmake --version.
func (c *CMake) Version(ctx context.Context) (string, error) {
	res := c.exec.Run(ctx, runner.Command{Args: []string{c.bin, "--version"}, Capture: true})
	if !res.Success {
		return "", fmt.Errorf("cmake --version: %w", res.Err)
	}
	m := versionRe.FindStringSubmatch(res.Stdout)
	if m == nil {
		return "", fmt.Errorf("cmake --version: unrecognized output %q", res.Stdout)
	}
	return m[1], nil
}

var minimumRe = regexp.MustCompile(`(?i)cmake_minimum_required\s*\(\s*VERSION\s+([0-9]+(?:\.[0-9]+)*)`)

// ParseMinimumRequired extracts the version from a CMakeLists.txt
// cmake_minimum_required call. For a policy range such as 3.10...3.28 the
// lower bound is returned.
func ParseMinimumRequired(content string) (string, bool) {
	m := minimumRe.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

var semverRe = regexp.MustCompile(`^[0-9]+(?:\.[0-9]+){0,2}`)

// SemVer converts a cmake version ("3.28.3", "3.16", "3.29.20240111-gabc")
// to the "vMAJOR.MINOR.PATCH" form golang.org/x/mod/semver compares.
// It returns "" when v does not start with a numeric version.
func SemVer(v string) string {
	core := semverRe.FindString(v)
	if core == "" {
		return ""
	}
	return "v" + core
}

func (c *CMake) definesArgs() []string {
	if len(c.Defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Defines))
	for k := range c.Defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := c.Defines[k]
		args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
	}
	return args
}
