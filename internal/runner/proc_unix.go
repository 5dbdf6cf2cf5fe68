//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// setProcessGroup puts the program in its own process group so a deadline
// kill also reaches any children still holding the output pipe.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}

// killStragglers kills whatever is left in the program's group after the
// leader exited. An empty group is not an error.
func killStragglers(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}
