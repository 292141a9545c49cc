package job

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dshills/lush/internal/proc"
)

// State represents the state of a job.
type State int

const (
	// StateRunning indicates the job has been started and has not stopped.
	StateRunning State = iota
	// StateStopped indicates the job was stopped by a signal.
	StateStopped
	// StateDone indicates the job exited or was killed.
	StateDone
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Job is one launched command.
type Job struct {
	// ID is the unique identifier for this job.
	ID string

	// Number is the small per-shell job number shown as %N.
	Number int

	Argv []string
	PID  int
	PGID int

	// Started is the time the job was launched.
	Started time.Time

	state  atomic.Int32
	status atomic.Uint32
}

func newJob(id string, number int, argv []string, pid int) *Job {
	j := &Job{
		ID:      id,
		Number:  number,
		Argv:    argv,
		PID:     pid,
		PGID:    pid,
		Started: time.Now(),
	}
	j.state.Store(int32(StateRunning))
	return j
}

// State returns the last observed state.
func (j *Job) State() State {
	return State(j.state.Load())
}

// Status returns the last wait status observed for the job.
func (j *Job) Status() proc.WaitStatus {
	return proc.WaitStatus(j.status.Load())
}

// Ref returns the %N reference for the job.
func (j *Job) Ref() string {
	return fmt.Sprintf("%%%d", j.Number)
}

// String formats the job as a job table line.
func (j *Job) String() string {
	return fmt.Sprintf("[%d] %d %s %s", j.Number, j.PID, j.State(), strings.Join(j.Argv, " "))
}

// observe records a wait status.
func (j *Job) observe(status proc.WaitStatus) {
	j.status.Store(uint32(status))
	switch {
	case status.Stopped():
		j.state.Store(int32(StateStopped))
	case status.Continued():
		j.state.Store(int32(StateRunning))
	case status.Exited(), status.Signaled():
		j.state.Store(int32(StateDone))
	}
}
