package app

import (
	"errors"
	"fmt"
	"strings"
)

// Application errors.
var (
	// ErrAlreadyRunning indicates Run was called twice.
	ErrAlreadyRunning = errors.New("shell already running")

	// ErrShutdown indicates Run was called after Shutdown.
	ErrShutdown = errors.New("shell shut down")
)

// OperationError reports a failed step of Run.
type OperationError struct {
	Op     string // "eval", "run script", ...
	Target string // script path or mode, may be empty
	Err    error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{Op: op, Target: target, Err: err}
}

func (e *OperationError) Error() string {
	msg := e.Op
	if e.Target != "" {
		msg += " " + e.Target
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// InitError reports a component that failed to start.
type InitError struct {
	Component string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing %s: %v", e.Component, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// ErrorList collects the errors of a shutdown. It is not safe for
// concurrent use.
type ErrorList struct {
	errs []error
}

// Add records err unless it is nil.
func (l *ErrorList) Add(err error) {
	if err != nil {
		l.errs = append(l.errs, err)
	}
}

func (l *ErrorList) Error() string {
	msgs := make([]string, len(l.errs))
	for i, err := range l.errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (l *ErrorList) Unwrap() []error {
	return l.errs
}

// AsError returns nil for an empty list.
func (l *ErrorList) AsError() error {
	if len(l.errs) == 0 {
		return nil
	}
	return l
}
