package workflow

import (
	"errors"
	"fmt"
)

// Engine errors.
var (
	// ErrAwaitingInput is returned by a step that cannot continue until the
	// requester supplies more text. The Engine turns it into a suspension.
	ErrAwaitingInput = errors.New("awaiting requester input")

	// ErrIterationExceeded means the Router kept selecting steps past the
	// configured ceiling.
	ErrIterationExceeded = errors.New("iteration ceiling exceeded")

	// ErrStepFailed is matched by every *StepError.
	ErrStepFailed = errors.New("step failed")

	// ErrFlagReset means a step turned a completion flag from true to false.
	ErrFlagReset = errors.New("completion flag reset")

	// ErrStepMissing means NewEngine was given no implementation for a step.
	ErrStepMissing = errors.New("step implementation missing")

	// ErrRunCompleted is returned by Resume for a run with nothing left to do.
	ErrRunCompleted = errors.New("run already completed")

	// ErrEmptyInput is returned by Resume when the supplied text is blank.
	ErrEmptyInput = errors.New("empty input")
)

// StepError reports a required step that failed and halted the run.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

// Unwrap returns the cause.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Is makes every StepError match ErrStepFailed.
func (e *StepError) Is(target error) bool {
	return target == ErrStepFailed
}

// FailedStep extracts the failing step from err, if any.
func FailedStep(err error) (Step, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, true
	}
	return "", false
}
