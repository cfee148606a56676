package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for dynamics calculations.
var (
	// ErrInvalidInput indicates a non-physical parameter (negative mass,
	// zero density, efficiency outside (0, 1], NaN speed).
	ErrInvalidInput = errors.New("dynamo: invalid input")

	// ErrNoSolution indicates the power balance has no non-negative root.
	ErrNoSolution = errors.New("dynamo: no physical solution")

	// ErrNotConverged indicates the solver ran out of iterations.
	ErrNotConverged = errors.New("dynamo: solver did not converge")

	// ErrInvalidState indicates a state vector with NaN or Inf values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// InputError reports which field failed validation.
type InputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("dynamo: invalid %s=%g: %s", e.Field, e.Value, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// SolverError wraps a numerical failure with solver context.
type SolverError struct {
	Method     string
	Iterations int
	Residual   float64
	Wrapped    error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("%s: %s after %d iterations (residual %.3g)", e.Wrapped, e.Method, e.Iterations, e.Residual)
}

func (e *SolverError) Unwrap() error {
	return e.Wrapped
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
