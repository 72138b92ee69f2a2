//go:build unix

package procgroup

import (
	"syscall"

	"golang.org/x/sys/unix"
)

const supported = true

// SysProcAttr returns the SysProcAttr needed to start a command as the
// leader of a new process group, so every descendant it spawns can be
// reached by a single signal to -pid.
func SysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// Signal sends sig to the process group led by pid, tolerating a group
// that has already exited.
func Signal(pid int, sig syscall.Signal) error {
	err := unix.Kill(-pid, sig)
	if err == nil || err == unix.ESRCH {
		return nil
	}
	return err
}

// Stop sends SIGSTOP to the process group.
func Stop(pid int) error { return Signal(pid, syscall.SIGSTOP) }

// Continue sends SIGCONT to the process group.
func Continue(pid int) error { return Signal(pid, syscall.SIGCONT) }

// Terminate sends SIGTERM to the process group.
func Terminate(pid int) error { return Signal(pid, syscall.SIGTERM) }
