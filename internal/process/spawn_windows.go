//go:build windows

package process

import (
	"os"
	"os/exec"
	"syscall"
)

// setDetachedProcess is a no-op for terminal detachment on Windows (there is
// no setsid/foreground-process-group takeover to defend against in the same
// way); it sets CREATE_NEW_PROCESS_GROUP so the adapter gets its own console
// process group. killProcessGroup below terminates only pid itself, not the
// rest of that group.
func setDetachedProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// killProcessGroup best-effort terminates pid. Windows has no SIGTERM/SIGKILL
// distinction for arbitrary processes; TerminateProcess is the only lever.
func killProcessGroup(pid int) {
	if proc, err := os.FindProcess(pid); err == nil {
		_ = proc.Kill()
	}
}
