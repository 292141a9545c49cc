package app

import (
	"errors"
	"testing"
)

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *OperationError
		expected string
	}{
		{
			name:     "op only",
			err:      &OperationError{Op: "eval"},
			expected: "eval",
		},
		{
			name:     "op and target",
			err:      &OperationError{Op: "run script", Target: "/etc/lush/init.lua"},
			expected: "run script /etc/lush/init.lua",
		},
		{
			name:     "wrapped error",
			err:      &OperationError{Op: "eval", Target: "-c", Err: errors.New("boom")},
			expected: "eval -c: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	err := NewOperationError("eval", "-c", ErrShutdown)
	if !errors.Is(err, ErrShutdown) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestInitError(t *testing.T) {
	inner := errors.New("no such file")
	err := &InitError{Component: "config", Err: inner}
	if got, want := err.Error(), "initializing config: no such file"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
}

func TestErrorList(t *testing.T) {
	var list ErrorList
	if list.AsError() != nil {
		t.Error("empty list should yield nil error")
	}

	second := errors.New("second")
	list.Add(nil)
	list.Add(ErrShutdown)
	list.Add(second)

	if got, want := list.Error(), "shell shut down; second"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(list.AsError(), ErrShutdown) || !errors.Is(list.AsError(), second) {
		t.Error("errors.Is should search collected errors")
	}
}
