//go:build windows

package runner

import (
	"fmt"
	"os/exec"
	"syscall"
)

// setSysProcAttr hides the console window the Previewer would otherwise open.
func setSysProcAttr(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.HideWindow = true
}

// killTree kills the process tree via taskkill /T.
func killTree(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	killCmd := exec.Command("taskkill", "/F", "/T", "/PID", fmt.Sprintf("%d", cmd.Process.Pid))
	killCmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
	if err := killCmd.Run(); err != nil {
		// Fall back to direct kill.
		return cmd.Process.Kill()
	}
	return nil
}
