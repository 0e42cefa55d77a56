package intake

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacity is returned when the concurrent session cap is reached.
	ErrCapacity = errors.New("intake: session capacity reached")
	// ErrNoSession is returned when input arrives for a chat without an active session.
	ErrNoSession = errors.New("intake: no active session")

	// errInvalid marks a rejected answer inside validators; the manager wraps
	// it into a ValidationError with the step's retry text.
	errInvalid = errors.New("intake: answer rejected")
	// errNotNumber marks numeric steps where the text does not parse at all;
	// it selects the "enter a number" retry text instead of the range one.
	errNotNumber = errors.New("intake: not a number")
)

// ValidationError describes a rejected answer for the current step.
// Reply carries the user-facing retry text; the step stays unchanged.
type ValidationError struct {
	Step  Step
	Reply string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("intake: invalid answer for step %s", e.Step)
}

// Code reports a stable error code for handler summary logs.
func (e *ValidationError) Code() string { return "VALIDATION" }
