//go:build !windows

package runner

import "os/exec"

func setShellCmdLine(c *exec.Cmd, args []string) {}
