package script

import "errors"

var (
	// ErrClosed is returned when using a closed host.
	ErrClosed = errors.New("script host is closed")

	// ErrTimeout is returned when a script runs past its deadline.
	ErrTimeout = errors.New("script execution timeout")

	// ErrUnknownMacro is returned by RunMacro for an unregistered name.
	ErrUnknownMacro = errors.New("unknown script command")
)
