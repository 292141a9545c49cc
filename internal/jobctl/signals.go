package jobctl

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dshills/lush/internal/proc"
)

// Mode is a named signal disposition set.
type Mode int

const (
	// ModeDefault restores the default disposition of every managed signal.
	ModeDefault Mode = iota
	// ModeInteractive is for the shell that owns the terminal: terminal
	// generated signals are ignored, SIGTERM and SIGHUP terminate.
	ModeInteractive
	// ModeNoninteractive is for scripts and spawned helpers: SIGPIPE and
	// SIGTTOU are ignored, SIGINT, SIGTERM and SIGHUP terminate.
	ModeNoninteractive
)

// String returns the mode name as accepted by ParseMode.
func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeInteractive:
		return "interactive"
	case ModeNoninteractive:
		return "noninteractive"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "default":
		return ModeDefault, nil
	case "interactive":
		return ModeInteractive, nil
	case "noninteractive":
		return ModeNoninteractive, nil
	default:
		return ModeDefault, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Action is what happens when a managed signal arrives.
type Action int

const (
	ActionDefault   Action = iota // system default disposition
	ActionIgnore                  // signal is discarded
	ActionTerminate               // children are cleaned up and the process exits
)

func (a Action) String() string {
	switch a {
	case ActionDefault:
		return "default"
	case ActionIgnore:
		return "ignore"
	case ActionTerminate:
		return "terminate"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// ManagedSignals are the signals whose disposition a Mode decides.
var ManagedSignals = []syscall.Signal{
	proc.SIGINT, proc.SIGQUIT, proc.SIGTSTP, proc.SIGTTIN,
	proc.SIGTTOU, proc.SIGHUP, proc.SIGPIPE, proc.SIGTERM,
}

// Table maps every managed signal to its action.
type Table map[syscall.Signal]Action

// Table returns the complete disposition table for m. Every managed signal
// has an entry.
func (m Mode) Table() (Table, error) {
	t := make(Table, len(ManagedSignals))
	for _, sig := range ManagedSignals {
		t[sig] = ActionDefault
	}

	switch m {
	case ModeDefault:
	case ModeInteractive:
		for _, sig := range []syscall.Signal{
			proc.SIGINT, proc.SIGQUIT, proc.SIGTSTP,
			proc.SIGTTIN, proc.SIGTTOU, proc.SIGPIPE,
		} {
			t[sig] = ActionIgnore
		}
		t[proc.SIGTERM] = ActionTerminate
		t[proc.SIGHUP] = ActionTerminate
	case ModeNoninteractive:
		t[proc.SIGPIPE] = ActionIgnore
		t[proc.SIGTTOU] = ActionIgnore
		t[proc.SIGINT] = ActionTerminate
		t[proc.SIGTERM] = ActionTerminate
		t[proc.SIGHUP] = ActionTerminate
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidMode, int(m))
	}
	return t, nil
}

// MaskAction selects whether MaskCleanupSignals blocks or releases the
// terminating signals.
type MaskAction int

const (
	MaskBlock   MaskAction = proc.SIG_BLOCK
	MaskUnblock MaskAction = proc.SIG_UNBLOCK
)

// Controller installs signal modes for the process.
//
// Ignored signals are caught and discarded rather than set to SIG_IGN, so
// children spawned by the shell start with default dispositions. Writes to
// a closed pipe then fail with EPIPE instead of killing the process.
//
// Terminating signals are handled on one goroutine and the terminating
// handler runs at most once.
type Controller struct {
	mu     sync.Mutex
	mode   Mode
	table  Table
	closed bool

	// masked holds back terminating signals; the first one held is kept
	// in pending.
	masked  bool
	pending syscall.Signal

	sigCh     chan os.Signal
	done      chan struct{}
	wg        sync.WaitGroup
	termOnce  sync.Once
	terminate func(syscall.Signal)
}

// NewController returns a controller in ModeDefault whose terminating
// handler is orch.Terminate. A nil orch makes the handler exit with
// status 1 directly.
func NewController(orch *Orchestrator) *Controller {
	table, _ := ModeDefault.Table()
	c := &Controller{
		mode:  ModeDefault,
		table: table,
		sigCh: make(chan os.Signal, 8),
		done:  make(chan struct{}),
	}
	if orch != nil {
		c.terminate = orch.Terminate
	} else {
		c.terminate = func(syscall.Signal) { osExit(1) }
	}

	c.wg.Add(1)
	go c.loop()
	return c
}

// Mode returns the installed mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode installs the full disposition table of m. Installing the
// current mode again reapplies it.
func (c *Controller) SetMode(m Mode) error {
	table, err := m.Table()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}
	c.table = table
	c.mode = m
	c.apply(ManagedSignals...)
	return nil
}

// apply installs the current table's disposition for sigs. Caller holds mu.
func (c *Controller) apply(sigs ...syscall.Signal) {
	var handled, reset []os.Signal
	for _, sig := range sigs {
		if c.table[sig] == ActionDefault {
			reset = append(reset, sig)
		} else {
			handled = append(handled, sig)
		}
	}
	// Both calls treat an empty list as "every signal".
	if len(handled) > 0 {
		signal.Notify(c.sigCh, handled...)
	}
	if len(reset) > 0 {
		signal.Reset(reset...)
	}
}

// MaskCleanupSignals holds back (MaskBlock) or releases (MaskUnblock) the
// terminating signals. A terminating signal that arrives while blocked is
// acted on when released.
func (c *Controller) MaskCleanupSignals(action MaskAction) error {
	c.mu.Lock()
	switch action {
	case MaskBlock:
		c.masked = true
		c.mu.Unlock()
		return nil
	case MaskUnblock:
		c.masked = false
		pending := c.pending
		c.pending = 0
		c.mu.Unlock()
		if pending != 0 {
			c.fire(pending)
		}
		return nil
	default:
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrInvalidMaskAction, int(action))
	}
}

// SetForeground makes pgid the foreground process group of the terminal on
// fd. SIGTTOU and SIGTTIN are ignored for the duration of the call, so a
// shell running in a background group is not stopped by it, and then get
// the disposition of the installed mode back.
func (c *Controller) SetForeground(fd, pgid int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	signal.Ignore(proc.SIGTTOU, proc.SIGTTIN)
	err := proc.Tcsetpgrp(fd, pgid)
	c.apply(proc.SIGTTOU, proc.SIGTTIN)
	return err
}

// Close stops signal handling and restores default dispositions.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	signal.Stop(c.sigCh)
	sigs := make([]os.Signal, len(ManagedSignals))
	for i, sig := range ManagedSignals {
		sigs[i] = sig
	}
	signal.Reset(sigs...)
	close(c.done)
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *Controller) loop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case s := <-c.sigCh:
			sig, ok := s.(syscall.Signal)
			if !ok {
				continue
			}
			c.handle(sig)
		}
	}
}

func (c *Controller) handle(sig syscall.Signal) {
	c.mu.Lock()
	action := c.table[sig]
	if action == ActionTerminate && c.masked {
		if c.pending == 0 {
			c.pending = sig
		}
		action = ActionIgnore
	}
	c.mu.Unlock()

	if action == ActionTerminate {
		c.fire(sig)
	}
}

func (c *Controller) fire(sig syscall.Signal) {
	c.termOnce.Do(func() {
		c.terminate(sig)
	})
}
