//go:build !windows

package process

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setDetachedProcess configures cmd to start a new session via setsid,
// fully detaching the child from any controlling terminal.
func setDetachedProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// killProcessGroup sends SIGTERM to the process group rooted at pid, then
// SIGKILL to the pid itself. Errors are ignored: the process or group may
// already be gone, which is the expected common case on a second call.
func killProcessGroup(pid int) {
	_ = unix.Kill(-pid, unix.SIGTERM)
	_ = unix.Kill(pid, unix.SIGKILL)
}
