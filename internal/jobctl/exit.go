package jobctl

import (
	"os"
	"sync"
)

// Process-exit hooks. Go has no atexit, so a program that wants its hooks
// run must leave through Exit (or call RunExitHooks itself).
var exitHooks struct {
	mu  sync.Mutex
	fns []func()
	ran bool
}

// osExit is replaced in tests.
var osExit = os.Exit

// AtExit registers fn to run when the process leaves through Exit. Hooks
// run in reverse order of registration.
func AtExit(fn func()) {
	exitHooks.mu.Lock()
	defer exitHooks.mu.Unlock()
	exitHooks.fns = append(exitHooks.fns, fn)
}

// RunExitHooks runs the registered hooks once. Later calls do nothing.
func RunExitHooks() {
	exitHooks.mu.Lock()
	if exitHooks.ran {
		exitHooks.mu.Unlock()
		return
	}
	exitHooks.ran = true
	fns := exitHooks.fns
	exitHooks.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// Exit runs the exit hooks and terminates the process with code.
func Exit(code int) {
	RunExitHooks()
	osExit(code)
}
