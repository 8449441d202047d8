package physics

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNonPositiveMass indicates a body with mass <= 0.
	ErrNonPositiveMass = errors.New("physics: mass must be positive")

	// ErrNonFinite indicates a NaN or Inf mass, position or velocity.
	ErrNonFinite = errors.New("physics: non-finite mass, position or velocity")
)

// BodyError wraps a validation failure with the offending body index.
type BodyError struct {
	Index   int
	Wrapped error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("body %d: %v", e.Index, e.Wrapped)
}

func (e *BodyError) Unwrap() error {
	return e.Wrapped
}

// Validate checks a state built outside the kernel, e.g. from user input or
// a config file. The kernel itself never validates.
func Validate(s State) error {
	for i, b := range s.Bodies {
		if math.IsInf(b.Mass, 0) || math.IsNaN(b.Mass) {
			return &BodyError{Index: i, Wrapped: ErrNonFinite}
		}
		if !(b.Mass > 0) {
			return &BodyError{Index: i, Wrapped: ErrNonPositiveMass}
		}
		if !b.Position.IsValid() || !b.Velocity.IsValid() {
			return &BodyError{Index: i, Wrapped: ErrNonFinite}
		}
	}
	return nil
}
