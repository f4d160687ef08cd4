//go:build unix

package cmdexec

import (
	"os/exec"
	"syscall"
)

// setProcGroup starts cmd in a new process group so that a timed out update
// script and everything it spawned can be killed together.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// killProcGroup sends SIGKILL to the process group of cmd.
func killProcGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
