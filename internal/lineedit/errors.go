package lineedit

import "errors"

var (
	// ErrRecursiveRead is returned by ReadLine when a read is already in
	// progress, typically because a completion callback tried to read.
	ErrRecursiveRead = errors.New("line read already active")

	// ErrInterrupted is returned by ReadLine when the user pressed Ctrl-C.
	ErrInterrupted = errors.New("line read interrupted")

	// ErrReaderClosed is returned by ReadLine after Close.
	ErrReaderClosed = errors.New("line reader is closed")
)
