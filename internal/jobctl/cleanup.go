package jobctl

import (
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/dshills/lush/internal/proc"
)

// children is the process-table view the orchestrator sweeps through.
type children interface {
	// Alive reports whether pid is a child of this process that has not
	// exited yet.
	Alive(pid int) bool
	Signal(pid int, sig syscall.Signal)
	Reap(pid int)
}

// waitChildren implements children with waitpid and kill.
type waitChildren struct{}

func (waitChildren) Alive(pid int) bool {
	wpid, _, err := proc.Wait(pid, proc.WNOHANG)
	return err == nil && wpid == 0
}

func (waitChildren) Signal(pid int, sig syscall.Signal) {
	_ = proc.Kill(pid, sig)
}

func (waitChildren) Reap(pid int) {
	_, _, _ = proc.Wait(pid, 0)
}

// Orchestrator terminates the registered children when the shell exits.
//
// Both the exit hook and the terminating-signal path sweep the registry,
// and both do nothing unless the running process is the one that last
// called Arm. All failures while signalling or reaping are ignored.
type Orchestrator struct {
	registry atomic.Pointer[Registry]
	owner    atomic.Int64
	hookOnce sync.Once

	getpid   func() int
	children children
	atExit   func(func())
	exit     func(int)
}

// NewOrchestrator returns an unarmed orchestrator with no registry.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{
		getpid:   proc.Getpid,
		children: waitChildren{},
		atExit:   AtExit,
		exit:     osExit,
	}
}

// Register publishes r as the registry to sweep. The registry is used in
// place, so pids added later are seen by the next sweep.
func (o *Orchestrator) Register(r *Registry) {
	o.registry.Store(r)
}

// Registry returns the registered registry, or nil.
func (o *Orchestrator) Registry() *Registry {
	return o.registry.Load()
}

// Arm makes the calling process the cleanup owner and installs the exit
// hook on first use. Arming again only moves ownership.
func (o *Orchestrator) Arm() {
	o.owner.Store(int64(o.getpid()))
	o.hookOnce.Do(func() {
		o.atExit(o.Cleanup)
	})
}

// Armed reports whether the calling process currently owns cleanup.
func (o *Orchestrator) Armed() bool {
	owner := o.owner.Load()
	return owner != 0 && owner == int64(o.getpid())
}

// Cleanup is the exit path: every live child is continued, then sent
// SIGTERM, then every registered pid is waited for.
func (o *Orchestrator) Cleanup() {
	r := o.sweepable()
	if r == nil {
		return
	}
	n := r.Len()
	o.signalLive(r, n, proc.SIGCONT)
	o.signalLive(r, n, proc.SIGTERM)
	for i := 0; i < n; i++ {
		o.children.Reap(r.At(i))
	}
}

// Terminate is the signal path: every live child is continued and sent
// SIGTERM, then the process exits with status 1 without waiting and
// without running exit hooks. A non-owner still exits.
func (o *Orchestrator) Terminate(sig syscall.Signal) {
	if r := o.sweepable(); r != nil {
		n := r.Len()
		o.signalLive(r, n, proc.SIGCONT)
		o.signalLive(r, n, proc.SIGTERM)
	}
	o.exit(1)
}

func (o *Orchestrator) sweepable() *Registry {
	if !o.Armed() {
		return nil
	}
	return o.registry.Load()
}

func (o *Orchestrator) signalLive(r *Registry, n int, sig syscall.Signal) {
	for i := 0; i < n; i++ {
		pid := r.At(i)
		if pid <= 0 || !o.children.Alive(pid) {
			continue
		}
		o.children.Signal(pid, sig)
	}
}
