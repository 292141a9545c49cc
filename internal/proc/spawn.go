package proc

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// ErrEmptyArgv is returned by Spawn and Exec when argv has no program.
var ErrEmptyArgv = errors.New("empty argument vector")

// SpawnAttr controls how Spawn starts the child.
type SpawnAttr struct {
	// Dir is the working directory; empty means the caller's.
	Dir string

	// Env is the environment; nil means the caller's.
	Env []string

	// Files are the descriptors the child gets as 0, 1, 2, ...; nil means
	// the caller's stdin, stdout and stderr.
	Files []uintptr

	// NewGroup places the child in process group Pgid, or in a new group it
	// leads when Pgid is 0.
	NewGroup bool
	Pgid     int

	// Foreground makes the child's group the foreground group of the
	// terminal open on TTY (a descriptor number in the child) before the
	// program starts. Implies NewGroup.
	Foreground bool
	TTY        int
}

// Spawn starts argv[0], looked up in PATH, as a child process and returns
// its pid. The child must be reaped with Wait.
func Spawn(argv []string, attr *SpawnAttr) (int, error) {
	if len(argv) == 0 {
		return 0, ErrEmptyArgv
	}
	if attr == nil {
		attr = &SpawnAttr{}
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return 0, &SyscallError{Op: "spawn", Errno: lookErrno(err)}
	}

	env := attr.Env
	if env == nil {
		env = os.Environ()
	}
	files := attr.Files
	if files == nil {
		files = []uintptr{StdinFD, StdoutFD, StderrFD}
	}

	pid, err := syscall.ForkExec(path, argv, &syscall.ProcAttr{
		Dir:   attr.Dir,
		Env:   env,
		Files: files,
		Sys: &syscall.SysProcAttr{
			Setpgid:    attr.NewGroup || attr.Foreground,
			Pgid:       attr.Pgid,
			Foreground: attr.Foreground,
			Ctty:       attr.TTY,
		},
	})
	if err != nil {
		return 0, newError("spawn", err)
	}
	return pid, nil
}
