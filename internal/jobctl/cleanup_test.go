package jobctl

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/dshills/lush/internal/proc"
)

type fakeChildren struct {
	alive  map[int]bool
	events []string
}

func (f *fakeChildren) Alive(pid int) bool { return f.alive[pid] }

func (f *fakeChildren) Signal(pid int, sig syscall.Signal) {
	f.events = append(f.events, fmt.Sprintf("%s %d", sigName(sig), pid))
}

func (f *fakeChildren) Reap(pid int) {
	f.events = append(f.events, fmt.Sprintf("wait %d", pid))
}

func sigName(sig syscall.Signal) string {
	switch sig {
	case proc.SIGCONT:
		return "CONT"
	case proc.SIGTERM:
		return "TERM"
	default:
		return sig.String()
	}
}

type fakeOrchestrator struct {
	*Orchestrator
	children *fakeChildren
	pid      int
	hooks    []func()
	exitCode int
}

func newFakeOrchestrator(t *testing.T, alive map[int]bool, pids ...int) *fakeOrchestrator {
	t.Helper()
	f := &fakeOrchestrator{
		Orchestrator: NewOrchestrator(),
		children:     &fakeChildren{alive: alive},
		pid:          1000,
		exitCode:     -1,
	}
	f.getpid = func() int { return f.pid }
	f.Orchestrator.children = f.children
	f.atExit = func(fn func()) { f.hooks = append(f.hooks, fn) }
	f.exit = func(code int) { f.exitCode = code }

	r := NewRegistry(len(pids) + 4)
	for _, pid := range pids {
		if err := r.Add(pid); err != nil {
			t.Fatalf("Add(%d) error = %v", pid, err)
		}
	}
	f.Register(r)
	return f
}

func TestOrchestrator_ArmInstallsHookOnce(t *testing.T) {
	f := newFakeOrchestrator(t, nil)

	f.Arm()
	f.pid = 2000
	f.Arm()

	if len(f.hooks) != 1 {
		t.Errorf("exit hooks installed = %d, want 1", len(f.hooks))
	}
	if !f.Armed() {
		t.Error("Armed() = false after re-arming in new process")
	}
	if got := f.owner.Load(); got != 2000 {
		t.Errorf("owner = %d, want 2000", got)
	}
}

func TestOrchestrator_CleanupOrder(t *testing.T) {
	f := newFakeOrchestrator(t, map[int]bool{11: true, 13: true}, 11, 12, 13)
	f.Arm()

	f.Cleanup()

	want := []string{
		"CONT 11", "CONT 13",
		"TERM 11", "TERM 13",
		"wait 11", "wait 12", "wait 13",
	}
	if strings.Join(f.children.events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", f.children.events, want)
	}
}

func TestOrchestrator_DeadChildrenNotSignalled(t *testing.T) {
	f := newFakeOrchestrator(t, map[int]bool{}, 21, 22)
	f.Arm()

	f.Cleanup()

	for _, ev := range f.children.events {
		if !strings.HasPrefix(ev, "wait ") {
			t.Errorf("unexpected event %q for dead child", ev)
		}
	}
}

func TestOrchestrator_NotOwner(t *testing.T) {
	tests := []struct {
		name string
		run  func(f *fakeOrchestrator)
	}{
		{"cleanup", func(f *fakeOrchestrator) { f.Cleanup() }},
		{"terminate", func(f *fakeOrchestrator) { f.Terminate(proc.SIGTERM) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeOrchestrator(t, map[int]bool{31: true}, 31)
			f.Arm()
			f.pid = 1001 // a forked descendant

			tt.run(f)

			if len(f.children.events) != 0 {
				t.Errorf("non-owner produced events %v", f.children.events)
			}
		})
	}
}

func TestOrchestrator_Unarmed(t *testing.T) {
	f := newFakeOrchestrator(t, map[int]bool{41: true}, 41)
	f.Cleanup()
	if len(f.children.events) != 0 {
		t.Errorf("unarmed cleanup produced events %v", f.children.events)
	}
}

func TestOrchestrator_TerminateDoesNotWait(t *testing.T) {
	f := newFakeOrchestrator(t, map[int]bool{51: true, 52: false}, 51, 52)
	f.Arm()

	f.Terminate(proc.SIGHUP)

	want := "CONT 51,TERM 51"
	if got := strings.Join(f.children.events, ","); got != want {
		t.Errorf("events = %q, want %q", got, want)
	}
	if f.exitCode != 1 {
		t.Errorf("exit code = %d, want 1", f.exitCode)
	}
}

func TestOrchestrator_SeesLaterAdds(t *testing.T) {
	f := newFakeOrchestrator(t, map[int]bool{61: true, 62: true})
	f.Arm()
	r := f.Registry()
	for _, pid := range []int{61, 62} {
		if err := r.Add(pid); err != nil {
			t.Fatalf("Add(%d) error = %v", pid, err)
		}
	}

	f.Cleanup()

	if len(f.children.events) != 6 {
		t.Errorf("events = %v, want CONT/TERM/wait for both children", f.children.events)
	}
}

func spawnSleep(t *testing.T) int {
	t.Helper()
	pid, err := proc.Spawn([]string{"sleep", "30"}, &proc.SpawnAttr{NewGroup: true})
	if err != nil {
		t.Fatalf("failed to start process: %v", err)
	}
	return pid
}

func TestOrchestrator_CleanupRealChildren(t *testing.T) {
	running := spawnSleep(t)
	stopped := spawnSleep(t)
	gone := spawnSleep(t)

	if err := proc.Kill(stopped, proc.SIGSTOP); err != nil {
		t.Fatalf("Kill(SIGSTOP) error = %v", err)
	}
	if _, _, err := proc.Wait(stopped, proc.WUNTRACED); err != nil {
		t.Fatalf("Wait(WUNTRACED) error = %v", err)
	}
	_ = proc.Kill(gone, proc.SIGKILL)
	if _, _, err := proc.Wait(gone, 0); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	o := NewOrchestrator()
	o.atExit = func(func()) {}
	r := NewRegistry(4)
	for _, pid := range []int{running, stopped, gone} {
		if err := r.Add(pid); err != nil {
			t.Fatalf("Add(%d) error = %v", pid, err)
		}
	}
	o.Register(r)
	o.Arm()

	done := make(chan struct{})
	go func() {
		o.Cleanup()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(20 * time.Second):
		t.Fatal("Cleanup() did not return; a stopped child was not resumed")
	}

	for _, pid := range []int{running, stopped} {
		if err := proc.Kill(pid, 0); !errors.Is(err, syscall.ESRCH) {
			t.Errorf("Kill(%d, 0) after cleanup = %v, want ESRCH", pid, err)
		}
	}
}

const helperEnv = "LUSH_JOBCTL_HELPER"

// TestHelperProcess is the body of the re-executed test binary used by the
// signal and terminal tests. It does nothing in a normal run.
func TestHelperProcess(t *testing.T) {
	mode := os.Getenv(helperEnv)
	if mode == "" {
		t.Skip("helper process")
	}
	os.Exit(runHelper(mode))
}
