package jobctl

import "errors"

var (
	// ErrRegistryFull is returned by Registry.Add once capacity is reached.
	ErrRegistryFull = errors.New("child registry is full")

	// ErrInvalidMode is returned when a mode name or value is not known.
	ErrInvalidMode = errors.New("invalid signal mode")

	// ErrInvalidMaskAction is returned for mask actions other than block
	// and unblock.
	ErrInvalidMaskAction = errors.New("invalid mask action")

	// ErrControllerClosed is returned when using a closed Controller.
	ErrControllerClosed = errors.New("signal controller is closed")
)
