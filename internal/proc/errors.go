package proc

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"syscall"
)

// Classification sentinels, matched with errors.Is against *SyscallError.
var (
	// ErrPermissionDenied matches EPERM and EACCES.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidProcess matches ESRCH and EINVAL.
	ErrInvalidProcess = errors.New("invalid process or group")

	// ErrExecFailed matches every *ExecError.
	ErrExecFailed = errors.New("exec failed")
)

// SyscallError reports a failed primitive.
type SyscallError struct {
	Op    string        // primitive name, e.g. "setpgid"
	Errno syscall.Errno // raw errno
}

func (e *SyscallError) Error() string {
	return fmt.Sprintf("%s: %s (errno=%d)", e.Op, e.Errno.Error(), int(e.Errno))
}

// Unwrap returns the errno so errors.Is(err, syscall.ESRCH) works.
func (e *SyscallError) Unwrap() error {
	return e.Errno
}

// Is classifies the errno against the package sentinels.
func (e *SyscallError) Is(target error) bool {
	switch target {
	case ErrPermissionDenied:
		return e.Errno == syscall.EPERM || e.Errno == syscall.EACCES
	case ErrInvalidProcess:
		return e.Errno == syscall.ESRCH || e.Errno == syscall.EINVAL
	}
	return false
}

// ExecError reports that replacing the process image failed. The calling
// process is still running its old image and must terminate.
type ExecError struct {
	Path  string
	Errno syscall.Errno
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("exec %s: %s (errno=%d)", e.Path, e.Errno.Error(), int(e.Errno))
}

func (e *ExecError) Unwrap() error {
	return e.Errno
}

func (e *ExecError) Is(target error) bool {
	return target == ErrExecFailed
}

// newError converts a raw error from a system call into a *SyscallError.
func newError(op string, err error) error {
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return &SyscallError{Op: op, Errno: errno}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// lookErrno maps a PATH lookup failure onto the errno execvp would report.
func lookErrno(err error) syscall.Errno {
	var errno syscall.Errno
	switch {
	case errors.As(err, &errno):
		return errno
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, fs.ErrPermission):
		return syscall.EACCES
	default:
		return syscall.EINVAL
	}
}
