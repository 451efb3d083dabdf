//go:build !windows

package build

import (
	"os"

	"golang.org/x/sys/unix"
)

// ensureExecutable grants execute permission to path unless the current user
// can already execute it. Calling it again is a no-op.
func ensureExecutable(path string) error {
	if unix.Access(path, unix.X_OK) == nil {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, info.Mode().Perm()|0o755)
}
