package env

import (
	"os"
	"path/filepath"
)

// RootEnv overrides the project root when set.
const RootEnv = "XPLBUILD_ROOT"

// ProjectRoot returns the absolute project root: $XPLBUILD_ROOT when set,
// otherwise the current working directory.
func ProjectRoot() (string, error) {
	if dir := os.Getenv(RootEnv); dir != "" {
		return filepath.Abs(dir)
	}
	return os.Getwd()
}
