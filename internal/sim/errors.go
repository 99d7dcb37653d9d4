package sim

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrNonPositiveDt indicates an elapsed time of zero or less.
	ErrNonPositiveDt = errors.New("sim: elapsed time must be positive")

	// ErrInvalidDuration indicates a run duration of zero or less.
	ErrInvalidDuration = errors.New("sim: duration must be positive")

	// ErrInvalidState indicates the plant state diverged to NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid plant state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates an initial state that does not fit the plant.
	ErrDimensionMismatch = errors.New("sim: dimension mismatch between state and plant")

	// ErrNoPlant indicates a closed loop built without a plant or integrator.
	ErrNoPlant = errors.New("sim: closed loop requires a plant and an integrator")

	// ErrEmptyTrace indicates a replay with no measurements.
	ErrEmptyTrace = errors.New("sim: empty trace")

	// ErrUnknownAction indicates an event with an unrecognized action.
	ErrUnknownAction = errors.New("sim: unknown event action")

	// ErrUnknownParam indicates a SetParam call with an unknown name.
	ErrUnknownParam = errors.New("sim: unknown parameter")

	// ErrParameterBounds indicates a parameter value outside its valid range.
	ErrParameterBounds = errors.New("sim: parameter out of valid bounds")
)

// StepError wraps an error with the step and time it occurred at.
type StepError struct {
	Step int
	Time float64
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
