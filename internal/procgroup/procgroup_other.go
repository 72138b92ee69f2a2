//go:build !unix

package procgroup

import (
	"syscall"

	"github.com/aprscheduler/apr-scheduler/internal/schederr"
)

const supported = false

// SysProcAttr returns nil: this platform has no process-group concept to
// configure at spawn time.
func SysProcAttr() *syscall.SysProcAttr { return nil }

var errUnsupported = schederr.Validation("process-group control is not supported on this platform")

// Signal always fails: there is no process-group signal delivery here.
func Signal(pid int, sig syscall.Signal) error { return errUnsupported }

// Stop always fails on non-POSIX platforms.
func Stop(pid int) error { return errUnsupported }

// Continue always fails on non-POSIX platforms.
func Continue(pid int) error { return errUnsupported }

// Terminate always fails on non-POSIX platforms.
func Terminate(pid int) error { return errUnsupported }
