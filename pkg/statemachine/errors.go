package statemachine

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("statemachine: from, to, and event must be non-empty")

// NoTransitionError indicates no transition is declared for a state/event pair.
type NoTransitionError struct {
	State string
	Event string
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("statemachine: no transition from state %q for event %q", e.State, e.Event)
}

// TransitionRejectedError indicates every candidate transition was blocked by guards.
type TransitionRejectedError struct {
	State string
	Event string
}

func (e *TransitionRejectedError) Error() string {
	return fmt.Sprintf("statemachine: transition from state %q for event %q rejected by guards", e.State, e.Event)
}

// IsNoTransition reports whether err is a NoTransitionError.
func IsNoTransition(err error) bool {
	var e *NoTransitionError
	return errors.As(err, &e)
}

// IsRejected reports whether err is a TransitionRejectedError.
func IsRejected(err error) bool {
	var e *TransitionRejectedError
	return errors.As(err, &e)
}
