package world

import "errors"

// Domain errors for pipeline configuration and runs.
var (
	// ErrInvalidTimestep indicates a zero or negative dt.
	ErrInvalidTimestep = errors.New("world: timestep must be positive")

	// ErrInvalidIslandSize indicates a minimum island size below 1.
	ErrInvalidIslandSize = errors.New("world: minimum island size must be at least 1")

	// ErrUnknownScene indicates a scene name with no builder.
	ErrUnknownScene = errors.New("world: unknown scene")
)

// StepError wraps an error with the step it occurred at.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return e.Wrapped.Error()
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
