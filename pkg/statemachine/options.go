package statemachine

import "errors"

var errNilHook = errors.New("statemachine: nil guard, action or listener")

// Option configures a machine during construction.
type Option[S, E comparable, D any] func(*Machine[S, E, D]) error

// TransitionOption configures a single transition with guards and actions.
type TransitionOption[S, E comparable, D any] func(*Transition[S, E, D]) error

// WithTransition adds a single transition.
func WithTransition[S, E comparable, D any](from, to S, event E, opts ...TransitionOption[S, E, D]) Option[S, E, D] {
	return func(m *Machine[S, E, D]) error {
		t := Transition[S, E, D]{From: from, To: to, Event: event}
		for _, opt := range opts {
			if err := opt(&t); err != nil {
				return err
			}
		}
		m.addTransition(t)
		return nil
	}
}

// WithTransitionsFrom adds the same transition out of each state in from.
// Used for escape transitions available everywhere.
func WithTransitionsFrom[S, E comparable, D any](from []S, to S, event E, opts ...TransitionOption[S, E, D]) Option[S, E, D] {
	return func(m *Machine[S, E, D]) error {
		for _, f := range from {
			if err := WithTransition(f, to, event, opts...)(m); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithListener registers a transition listener.
func WithListener[S, E comparable, D any](l Listener[S, E, D]) Option[S, E, D] {
	return func(m *Machine[S, E, D]) error {
		if l == nil {
			return errNilHook
		}
		m.listeners = append(m.listeners, l)
		return nil
	}
}

// WithGuard adds a guard to a transition.
func WithGuard[S, E comparable, D any](g Guard[S, E, D]) TransitionOption[S, E, D] {
	return func(t *Transition[S, E, D]) error {
		if g == nil {
			return errNilHook
		}
		t.Guards = append(t.Guards, g)
		return nil
	}
}

// WithAction adds an action to a transition.
func WithAction[S, E comparable, D any](a Action[S, E, D]) TransitionOption[S, E, D] {
	return func(t *Transition[S, E, D]) error {
		if a == nil {
			return errNilHook
		}
		t.Actions = append(t.Actions, a)
		return nil
	}
}
