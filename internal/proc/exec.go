package proc

import (
	"os"
	"os/exec"
	"syscall"
)

// Exec replaces the current process image with argv[0], looked up in PATH,
// keeping the environment. It does not return on success. On failure the
// old image keeps running and the caller must terminate.
func Exec(argv []string) error {
	if len(argv) == 0 {
		return ErrEmptyArgv
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return &ExecError{Path: argv[0], Errno: lookErrno(err)}
	}

	err = syscall.Exec(path, argv, os.Environ())
	return &ExecError{Path: path, Errno: lookErrno(err)}
}
