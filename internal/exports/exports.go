// Package exports validates the per-platform export-symbol lists that tell
// each host loader which plugin entry points the binary exposes.
package exports

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xpautothrottle/xplbuild/internal/platform"
)

// Lifecycle symbols every X-Plane plugin exports.
var (
	LifecycleSymbols = []string{
		"XPluginStart",
		"XPluginStop",
		"XPluginEnable",
		"XPluginDisable",
		"XPluginReceiveMessage",
	}
	coreSymbols = LifecycleSymbols[:2]
)

// Markers of the non-symbol parts of the Windows and Linux formats.
const (
	ModuleDefinitionHeader = "EXPORTS"
	GlobalSection          = "global:"
	LocalSection           = "local:"
	EntrySymbol            = "XPluginStart"
)

var ErrFormat = errors.New("export list format incorrect")

// FormatError lists what an export file is missing.
type FormatError struct {
	Platform platform.ID
	Missing  []string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s exports: format incorrect, missing %s", e.Platform.DisplayName(), strings.Join(e.Missing, ", "))
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func missing(content string, want []string) []string {
	var out []string
	for _, s := range want {
		if !strings.Contains(content, s) {
			out = append(out, s)
		}
	}
	return out
}

func result(id platform.ID, miss []string) error {
	if len(miss) == 0 {
		return nil
	}
	return &FormatError{Platform: id, Missing: miss}
}

// CheckMac validates a flat symbol list: all five lifecycle symbols present.
func CheckMac(content string) error {
	return result(platform.Mac, missing(content, LifecycleSymbols))
}

// CheckWindows validates a module-definition file: the EXPORTS header and the
// two core lifecycle symbols.
func CheckWindows(content string) error {
	want := append([]string{ModuleDefinitionHeader}, coreSymbols...)
	return result(platform.Windows, missing(content, want))
}

// CheckLinux validates a linker version script: both visibility sections and
// the entry symbol terminated by a semicolon.
func CheckLinux(content string) error {
	return result(platform.Linux, missing(content, []string{GlobalSection, LocalSection, EntrySymbol + ";"}))
}

// Check validates content in the format of id.
func Check(id platform.ID, content string) error {
	switch id {
	case platform.Mac:
		return CheckMac(content)
	case platform.Windows:
		return CheckWindows(content)
	case platform.Linux:
		return CheckLinux(content)
	}
	return &platform.UnsupportedError{Name: id.String()}
}

// CheckFile reads the export list of id under root and validates it.
func CheckFile(root string, id platform.ID) error {
	data, err := os.ReadFile(filepath.Join(root, id.ExportsFile()))
	if err != nil {
		return fmt.Errorf("%s exports: %w", id.DisplayName(), err)
	}
	return Check(id, string(data))
}
