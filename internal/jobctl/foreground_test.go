package jobctl

import (
	"fmt"
	"os"

	"github.com/dshills/lush/internal/proc"
)

// foregroundHelper runs as a session leader whose controlling terminal is
// on stdin. It hands the terminal to a child group and takes it back while
// running in the background.
func foregroundHelper() int {
	c := NewController(nil)
	if err := c.SetMode(ModeInteractive); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 3
	}

	shell := proc.Getpgrp()
	if fg, err := proc.Tcgetpgrp(proc.StdinFD); err != nil || fg != shell {
		fmt.Fprintf(os.Stderr, "shell is not in the foreground: %d %v\n", fg, err)
		return 3
	}

	job, err := proc.Spawn([]string{"sleep", "30"}, &proc.SpawnAttr{NewGroup: true})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 3
	}
	defer func() {
		_ = proc.Kill(job, proc.SIGKILL)
		_, _, _ = proc.Wait(job, 0)
	}()

	if err := c.SetForeground(proc.StdinFD, job); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 4
	}
	if fg, _ := proc.Tcgetpgrp(proc.StdinFD); fg != job {
		fmt.Fprintf(os.Stderr, "foreground = %d, want job %d\n", fg, job)
		return 4
	}

	// The shell is now a background group; without SIGTTOU ignored this
	// call would stop it.
	if err := c.SetForeground(proc.StdinFD, shell); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 5
	}
	if fg, _ := proc.Tcgetpgrp(proc.StdinFD); fg != shell {
		fmt.Fprintf(os.Stderr, "foreground = %d, want shell %d\n", fg, shell)
		return 5
	}

	fmt.Fprintln(os.Stderr, "foreground ok")
	return 0
}
