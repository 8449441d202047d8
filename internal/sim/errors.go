package sim

import "errors"

var (
	// ErrDisconnected is returned by a Sink whose consumer has gone away.
	ErrDisconnected = errors.New("sim: consumer disconnected")

	// ErrInvalidConfig indicates a non-positive frame rate or step.
	ErrInvalidConfig = errors.New("sim: invalid driver config")
)
