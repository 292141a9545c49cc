// Package proc exposes the process and process-group primitives a job
// control shell is built from.
//
// Every primitive is a thin, synchronous wrapper over one system call.
// Failures come back as *SyscallError carrying the operation name and the
// errno, so callers can match on the errno or on the classification
// sentinels:
//
//	if err := proc.Setpgid(pid, pid); errors.Is(err, proc.ErrInvalidProcess) {
//	    // the child already exited
//	}
//
// # Spawning
//
// Go cannot continue safely in a forked child, so there is no standalone
// fork. Spawn performs fork and exec as one step and applies the process
// group and terminal settings in the child before the new image runs:
//
//	pid, err := proc.Spawn([]string{"sleep", "10"}, &proc.SpawnAttr{
//	    NewGroup:   true,
//	    Foreground: true,
//	})
//
// Exec replaces the current process image and only returns on failure.
//
// # Wait Status
//
// Wait returns a WaitStatus whose decoders mirror the POSIX W* macros.
//
// The package is Unix only.
package proc
