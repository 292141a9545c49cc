package proc

import "golang.org/x/sys/unix"

// Setpgid moves pid into the process group pgid. A pid of 0 means the
// caller; a pgid of 0 means a new group led by pid.
func Setpgid(pid, pgid int) error {
	return newError("setpgid", unix.Setpgid(pid, pgid))
}

// Getpgrp returns the caller's process group.
func Getpgrp() int {
	return unix.Getpgrp()
}

// Getpgid returns the process group of pid.
func Getpgid(pid int) (int, error) {
	pgid, err := unix.Getpgid(pid)
	if err != nil {
		return 0, newError("getpgid", err)
	}
	return pgid, nil
}

// Tcgetpgrp returns the foreground process group of the terminal open on fd.
func Tcgetpgrp(fd int) (int, error) {
	pgid, err := unix.IoctlGetInt(fd, unix.TIOCGPGRP)
	if err != nil {
		return 0, newError("tcgetpgrp", err)
	}
	return pgid, nil
}

// Tcsetpgrp makes pgid the foreground process group of the terminal open
// on fd. Called from a background group this raises SIGTTOU unless the
// caller ignores it; jobctl.Controller.SetForeground takes care of that.
func Tcsetpgrp(fd, pgid int) error {
	return newError("tcsetpgrp", unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, pgid))
}
