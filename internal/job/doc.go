// Package job launches shell jobs under job control.
//
// Each job runs in a process group of its own and is recorded in the
// cleanup registry. A foreground job is given the terminal and waited for
// until it exits or stops; the terminal then goes back to the shell. A
// background job is left running and its state is picked up by Refresh.
//
//	l := job.NewLauncher(registry, controller, job.WithTTY(0))
//	j, err := l.Run([]string{"vi", "notes"}, false)
//	if j.State() == job.StateStopped {
//	    err = l.Continue(j.Ref(), true) // fg
//	}
package job
