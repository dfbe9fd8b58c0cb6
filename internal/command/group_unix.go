//go:build unix

package command

import (
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// KillGroupOnCancel places cmd in its own process group and makes context
// cancellation terminate the whole group instead of only the direct child.
// Tools like adb fork helpers that would otherwise outlive an interrupt.
func KillGroupOnCancel(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGTERM)
	}
	cmd.WaitDelay = 2 * time.Second
}
