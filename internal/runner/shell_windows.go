//go:build windows

package runner

import (
	"os/exec"
	"syscall"
)

// setShellCmdLine bypasses Go's argument escaping, which cmd.exe does not
// understand.
func setShellCmdLine(c *exec.Cmd, args []string) {
	c.SysProcAttr = &syscall.SysProcAttr{CmdLine: WindowsCmdLine(args)}
}
