package job

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/lush/internal/jobctl"
	"github.com/dshills/lush/internal/logging"
	"github.com/dshills/lush/internal/proc"
)

// Sentinel errors for the job package.
var (
	// ErrJobNotFound is returned when a job reference matches no job.
	ErrJobNotFound = errors.New("no such job")

	// ErrJobDone is returned when continuing a job that has finished.
	ErrJobDone = errors.New("job has finished")
)

// Foregrounder hands the terminal to a process group.
// *jobctl.Controller implements it.
type Foregrounder interface {
	SetForeground(fd, pgid int) error
}

// Launcher starts and tracks jobs. It is safe for concurrent use, but
// foreground waits block the caller.
type Launcher struct {
	mu     sync.Mutex
	jobs   []*Job
	nextNo int

	registry *jobctl.Registry
	fg       Foregrounder
	tty      int
	log      *logging.Logger
}

// LauncherOption configures a Launcher.
type LauncherOption func(*Launcher)

// WithTTY enables terminal hand-off using the terminal open on fd. Without
// it jobs never touch the terminal's foreground group.
func WithTTY(fd int) LauncherOption {
	return func(l *Launcher) {
		l.tty = fd
	}
}

// WithLogger sets the logger.
func WithLogger(log *logging.Logger) LauncherOption {
	return func(l *Launcher) {
		l.log = log
	}
}

// NewLauncher returns a launcher that records pids in registry and uses fg
// for terminal transfers.
func NewLauncher(registry *jobctl.Registry, fg Foregrounder, opts ...LauncherOption) *Launcher {
	l := &Launcher{
		registry: registry,
		fg:       fg,
		tty:      -1,
		log:      logging.Null(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Launcher) interactive() bool {
	return l.tty >= 0 && l.fg != nil
}

// Run starts argv as a new job. A foreground job is waited for until it
// exits or stops; a background job returns at once.
func (l *Launcher) Run(argv []string, background bool) (*Job, error) {
	if len(argv) == 0 {
		return nil, proc.ErrEmptyArgv
	}
	foreground := !background && l.interactive()

	pid, err := proc.Spawn(argv, &proc.SpawnAttr{
		NewGroup:   true,
		Foreground: foreground,
		TTY:        max(l.tty, 0),
	})
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", argv[0], err)
	}

	if err := l.registry.Add(pid); err != nil {
		l.log.Warn("pid %d will not be cleaned up: %v", pid, err)
	}

	l.mu.Lock()
	l.nextNo++
	j := newJob(uuid.New().String(), l.nextNo, argv, pid)
	l.jobs = append(l.jobs, j)
	l.mu.Unlock()

	l.log.WithFields(map[string]any{"job": j.Number, "pid": pid}).
		Debug("started %q background=%v", strings.Join(argv, " "), background)

	if background {
		return j, nil
	}
	return j, l.wait(j)
}

// wait blocks until j exits or stops, then returns the terminal to the
// shell's group.
func (l *Launcher) wait(j *Job) error {
	_, status, err := proc.Wait(j.PID, proc.WUNTRACED)
	if err == nil {
		j.observe(status)
		l.log.WithField("job", j.Number).Debug("%s", status)
	}

	if l.interactive() {
		if ferr := l.fg.SetForeground(l.tty, proc.Getpgrp()); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}

// Continue resumes a stopped or background job, in the foreground when fg
// is true.
func (l *Launcher) Continue(ref string, fg bool) error {
	j, err := l.Lookup(ref)
	if err != nil {
		return err
	}
	if j.State() == StateDone {
		return fmt.Errorf("%s: %w", j.Ref(), ErrJobDone)
	}

	if fg && l.interactive() {
		if err := l.fg.SetForeground(l.tty, j.PGID); err != nil {
			return err
		}
	}
	if err := proc.Kill(-j.PGID, proc.SIGCONT); err != nil {
		return err
	}
	j.state.Store(int32(StateRunning))

	if fg {
		return l.wait(j)
	}
	return nil
}

// Refresh polls every unfinished job without blocking and records state
// changes.
func (l *Launcher) Refresh() {
	for _, j := range l.Jobs() {
		if j.State() == StateDone {
			continue
		}
		wpid, status, err := proc.Wait(j.PID, proc.WNOHANG|proc.WUNTRACED|proc.WCONTINUED)
		switch {
		case err != nil:
			// Reaped elsewhere.
			j.state.Store(int32(StateDone))
		case wpid == j.PID:
			j.observe(status)
		}
	}
}

// Jobs returns the jobs in launch order.
func (l *Launcher) Jobs() []*Job {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Job, len(l.jobs))
	copy(out, l.jobs)
	return out
}

// Prune drops finished jobs from the table and returns them.
func (l *Launcher) Prune() []*Job {
	l.mu.Lock()
	defer l.mu.Unlock()
	var done []*Job
	kept := l.jobs[:0]
	for _, j := range l.jobs {
		if j.State() == StateDone {
			done = append(done, j)
		} else {
			kept = append(kept, j)
		}
	}
	l.jobs = kept
	return done
}

// Lookup resolves a job reference: "%N" or "N" for a job number, or a job
// ID. An empty reference, "%" or "%+" means the current job, the most
// recent one that has not finished.
func (l *Launcher) Lookup(ref string) (*Job, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ref == "" || ref == "%" || ref == "%+" {
		for i := len(l.jobs) - 1; i >= 0; i-- {
			if l.jobs[i].State() != StateDone {
				return l.jobs[i], nil
			}
		}
		return nil, ErrJobNotFound
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(ref, "%")); err == nil {
		for _, j := range l.jobs {
			if j.Number == n {
				return j, nil
			}
		}
		return nil, fmt.Errorf("%s: %w", ref, ErrJobNotFound)
	}
	for _, j := range l.jobs {
		if j.ID == ref {
			return j, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", ref, ErrJobNotFound)
}
