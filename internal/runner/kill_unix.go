//go:build !windows

package runner

import (
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// setSysProcAttr places the child in its own process group so the whole
// Previewer process tree (it forks JVM helpers) can be killed together.
func setSysProcAttr(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// killTree kills the process and all its children via the process group.
func killTree(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	pid := cmd.Process.Pid
	if pgid, err := unix.Getpgid(pid); err == nil && pgid > 0 {
		if err := unix.Kill(-pgid, unix.SIGKILL); err != nil {
			// Group kill can race with normal exit; try a softer signal.
			_ = unix.Kill(-pgid, unix.SIGTERM)
		}
	}

	// Also kill the main process directly as a fallback.
	if err := cmd.Process.Kill(); err != nil {
		if !strings.Contains(err.Error(), "process already finished") {
			return err
		}
	}
	return nil
}
