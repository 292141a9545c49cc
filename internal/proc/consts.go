package proc

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// Standard descriptors.
const (
	StdinFD  = 0
	StdoutFD = 1
	StderrFD = 2
)

// Signals used by job control.
const (
	SIGINT  = syscall.SIGINT
	SIGCONT = syscall.SIGCONT
	SIGQUIT = syscall.SIGQUIT
	SIGTSTP = syscall.SIGTSTP
	SIGTTIN = syscall.SIGTTIN
	SIGTTOU = syscall.SIGTTOU
	SIGCHLD = syscall.SIGCHLD
	SIGTERM = syscall.SIGTERM
	SIGPIPE = syscall.SIGPIPE
	SIGHUP  = syscall.SIGHUP
	SIGKILL = syscall.SIGKILL
	SIGSTOP = syscall.SIGSTOP
)

// Mask actions accepted when masking the cleanup signals. Values follow
// Linux.
const (
	SIG_BLOCK   = 0
	SIG_UNBLOCK = 1
)

// Open flags and permission bits.
const (
	O_RDONLY = unix.O_RDONLY
	O_WRONLY = unix.O_WRONLY
	O_RDWR   = unix.O_RDWR
	O_APPEND = unix.O_APPEND
	O_CREAT  = unix.O_CREAT
	O_TRUNC  = unix.O_TRUNC

	S_IWUSR = unix.S_IWUSR
	S_IRUSR = unix.S_IRUSR
	S_IRGRP = unix.S_IRGRP
)

// TCSADRAIN is the termios "apply after output drains" action.
const TCSADRAIN = 1

// Wait flags.
const (
	WUNTRACED  = unix.WUNTRACED
	WNOHANG    = unix.WNOHANG
	WCONTINUED = unix.WCONTINUED
)

// Errnos callers commonly match on.
const (
	ECHILD = syscall.ECHILD
	ESRCH  = syscall.ESRCH
	EACCES = syscall.EACCES
)
