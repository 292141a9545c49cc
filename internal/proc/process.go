package proc

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// WaitStatus is a raw wait status as filled in by waitpid.
type WaitStatus uint32

// Exited reports whether the child terminated normally.
func (s WaitStatus) Exited() bool { return unix.WaitStatus(s).Exited() }

// ExitStatus returns the exit code, or -1 if the child did not exit normally.
func (s WaitStatus) ExitStatus() int { return unix.WaitStatus(s).ExitStatus() }

// Signaled reports whether the child was terminated by a signal.
func (s WaitStatus) Signaled() bool { return unix.WaitStatus(s).Signaled() }

// Signal returns the terminating signal, or -1.
func (s WaitStatus) Signal() syscall.Signal {
	if !s.Signaled() {
		return -1
	}
	return unix.WaitStatus(s).Signal()
}

// Stopped reports whether the child is stopped.
func (s WaitStatus) Stopped() bool { return unix.WaitStatus(s).Stopped() }

// StopSignal returns the signal that stopped the child, or -1.
func (s WaitStatus) StopSignal() syscall.Signal {
	if !s.Stopped() {
		return -1
	}
	return unix.WaitStatus(s).StopSignal()
}

// Continued reports whether the child was resumed by SIGCONT.
func (s WaitStatus) Continued() bool { return unix.WaitStatus(s).Continued() }

// String describes the status the way a job table shows it.
func (s WaitStatus) String() string {
	switch {
	case s.Exited():
		return fmt.Sprintf("exited %d", s.ExitStatus())
	case s.Signaled():
		return fmt.Sprintf("killed by %v", s.Signal())
	case s.Stopped():
		return fmt.Sprintf("stopped by %v", s.StopSignal())
	case s.Continued():
		return "continued"
	default:
		return fmt.Sprintf("status(%#x)", uint32(s))
	}
}

// Getpid returns the calling process id.
func Getpid() int {
	return unix.Getpid()
}

// Kill sends sig to pid. A pid of zero or less addresses a process group
// with the usual kill(2) meaning.
func Kill(pid int, sig syscall.Signal) error {
	return newError("kill", unix.Kill(pid, sig))
}

// Wait waits for a state change in the child identified by pid (with the
// usual waitpid meanings for -1, 0 and negative values). With WNOHANG the
// returned pid is 0 while the child is still running. Interrupted waits are
// restarted.
func Wait(pid int, flags int) (int, WaitStatus, error) {
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &ws, flags, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return wpid, 0, newError("waitpid", err)
		}
		return wpid, WaitStatus(ws), nil
	}
}

// IsTerminal reports whether fd refers to a terminal.
func IsTerminal(fd int) bool {
	return term.IsTerminal(fd)
}
