package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for body construction and simulation runs.
var (
	// ErrInvalidMass indicates a body mass that is zero, negative or not finite.
	ErrInvalidMass = errors.New("dynamo: mass must be positive and finite")

	// ErrInvalidName indicates a body constructed without a name.
	ErrInvalidName = errors.New("dynamo: body name must not be empty")

	// ErrDuplicateName indicates two bodies sharing a name within one run.
	ErrDuplicateName = errors.New("dynamo: duplicate body name")

	// ErrCoincident indicates two bodies constructed at the same position.
	ErrCoincident = errors.New("dynamo: coincident body positions")

	// ErrInvalidState indicates a body state containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrRecorder indicates the persistence collaborator failed.
	ErrRecorder = errors.New("dynamo: recorder failed")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Body    string
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
	}
	return fmt.Sprintf("step %d (t=%.4f) body %q: %v", e.Step, e.Time, e.Body, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
