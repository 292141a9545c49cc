package jobctl

import (
	"sync"
	"sync/atomic"
)

// DefaultRegistryCapacity is used when NewRegistry is given no capacity.
const DefaultRegistryCapacity = 4096

// Registry records child pids for exit-time cleanup.
//
// Entries are never removed and the backing array is allocated once. Add is
// serialized; Len and At are safe from any goroutine, including a signal
// handler running concurrently with Add.
type Registry struct {
	mu   sync.Mutex
	pids []int32
	n    atomic.Int32
}

// NewRegistry returns a registry that holds up to capacity pids.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultRegistryCapacity
	}
	return &Registry{pids: make([]int32, capacity)}
}

// Add records pid. It fails with ErrRegistryFull when the registry is at
// capacity; the pid is then not tracked.
func (r *Registry) Add(pid int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.n.Load()
	if int(n) >= len(r.pids) {
		return ErrRegistryFull
	}
	r.pids[n] = int32(pid)
	r.n.Store(n + 1)
	return nil
}

// Len returns the number of recorded pids.
func (r *Registry) Len() int {
	return int(r.n.Load())
}

// Cap returns the fixed capacity.
func (r *Registry) Cap() int {
	return len(r.pids)
}

// At returns the i'th recorded pid. i must be below a value returned by Len.
func (r *Registry) At(i int) int {
	return int(r.pids[i])
}

// PIDs returns a copy of the recorded pids.
func (r *Registry) PIDs() []int {
	n := r.Len()
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = r.At(i)
	}
	return out
}
