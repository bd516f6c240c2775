package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrActionFailed = errors.New("statemachine: transition action failed")

	// ErrNoTransition means the current state has no transition for the event.
	ErrNoTransition = errors.New("statemachine: no transition")
	// ErrRejected means transitions exist but every guard refused.
	ErrRejected = errors.New("statemachine: rejected by guards")
)

// TransitionError reports the state and event of a failed Fire. It matches
// ErrNoTransition or ErrRejected with errors.Is.
type TransitionError struct {
	From     string
	Event    string
	Rejected bool
}

func (e *TransitionError) Error() string {
	if e.Rejected {
		return fmt.Sprintf("transition from state '%s' for event '%s' was rejected by guards", e.From, e.Event)
	}
	return fmt.Sprintf("no transition available from state '%s' for event '%s'", e.From, e.Event)
}

func (e *TransitionError) Unwrap() error {
	if e.Rejected {
		return ErrRejected
	}
	return ErrNoTransition
}
