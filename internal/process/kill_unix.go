//go:build !windows

package process

import "syscall"

// KillProcessGroup sends SIGKILL to the process group of pid so the
// headless browser's helper processes exit with it.
func KillProcessGroup(pid int) {
	// Best effort: the launcher's own Kill runs afterwards.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
