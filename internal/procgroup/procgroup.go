// Package procgroup wraps POSIX process-group control: placing a
// subprocess in its own process group at spawn time so a single signal
// reaches it and every descendant of its shell, and sending
// SIGSTOP/SIGCONT/SIGTERM to that group for pause/resume/stop/timeout.
//
// All syscalls tolerate "no such process": a signal racing a process's
// natural exit must never surface as an error.
package procgroup

// Supported reports whether this platform supports process-group control.
// On platforms where it does not, pause/resume must return an
// unsupported-operation error rather than silently degrade.
func Supported() bool { return supported }
