// Package platform models the closed set of operating systems the plugin is
// built for and resolves the host or a user override to exactly one of them.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ID identifies a target platform.
type ID int

const (
	Windows ID = iota + 1
	Mac
	Linux
)

// Auto is the override value that asks for host detection.
const Auto = "auto"

// ErrUnsupported is matched by every UnsupportedError.
var ErrUnsupported = errors.New("unsupported platform")

// UnsupportedError reports an operating system or platform name that does
// not map to a known ID.
type UnsupportedError struct {
	Name string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported platform: %s", e.Name)
}

func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupported
}

type info struct {
	name        string
	display     string
	output      string
	entryPoint  string
	exports     string
	systemName  string
	shellScript bool
}

var table = map[ID]info{
	Windows: {
		name:        "windows",
		display:     "Windows",
		output:      "win.xpl",
		entryPoint:  "build_windows.bat",
		exports:     "win_exports.def",
		systemName:  "Windows",
		shellScript: true,
	},
	Mac: {
		name:       "mac",
		display:    "macOS",
		output:     "mac.xpl",
		entryPoint: "build.sh",
		exports:    "mac_exports.txt",
	},
	Linux: {
		name:       "linux",
		display:    "Linux",
		output:     "lin.xpl",
		entryPoint: "build_linux.sh",
		exports:    "linux_exports.txt",
		systemName: "Linux",
	},
}

// All returns every platform in the order the configuration checks visit them.
func All() []ID {
	return []ID{Mac, Linux, Windows}
}

// Names returns the accepted values of a platform override, including Auto.
func Names() []string {
	return []string{"windows", "mac", "linux", Auto}
}

func (id ID) String() string {
	if i, ok := table[id]; ok {
		return i.name
	}
	return fmt.Sprintf("platform(%d)", int(id))
}

// Valid reports whether id is one of the known platforms.
func (id ID) Valid() bool {
	_, ok := table[id]
	return ok
}

// DisplayName is the human-readable platform name.
func (id ID) DisplayName() string { return table[id].display }

// OutputName is the file name of the plugin binary under build/.
func (id ID) OutputName() string { return table[id].output }

// EntryPoint is the build script path relative to the project root.
func (id ID) EntryPoint() string { return table[id].entryPoint }

// ExportsFile is the export-symbol list relative to the project root.
func (id ID) ExportsFile() string { return table[id].exports }

// SystemName is the CMAKE_SYSTEM_NAME override used for cross-platform
// configuration. It is empty for mac, which configures natively.
func (id ID) SystemName() string { return table[id].systemName }

// UsesShell reports whether the entry point must be run through the
// command interpreter rather than executed directly.
func (id ID) UsesShell() bool { return table[id].shellScript }

// Parse maps a platform name to its ID. Auto is not accepted here; use
// Resolve for user input.
func Parse(s string) (ID, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for id, i := range table {
		if i.name == name {
			return id, nil
		}
	}
	return 0, &UnsupportedError{Name: s}
}

// Resolve turns an override value into an ID, detecting the host when the
// value is empty or Auto.
func Resolve(s string) (ID, error) {
	if s == "" || strings.EqualFold(s, Auto) {
		return Detect()
	}
	return Parse(s)
}

// Detect returns the ID of the executing host.
func Detect() (ID, error) {
	return detect(runtime.GOOS)
}

func detect(goos string) (ID, error) {
	switch goos {
	case "windows":
		return Windows, nil
	case "darwin":
		return Mac, nil
	case "linux":
		return Linux, nil
	}
	return 0, &UnsupportedError{Name: goos}
}
