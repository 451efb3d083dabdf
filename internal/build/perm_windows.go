//go:build windows

package build

// ensureExecutable is a no-op: Windows has no execute permission bit.
func ensureExecutable(path string) error {
	return nil
}
