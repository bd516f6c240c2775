package statemachine

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard[S, E comparable, D any] func(ctx context.Context, from S, event E, data D) bool

// Action executes side effects during state transitions. Returning an error prevents the transition.
type Action[S, E comparable, D any] func(ctx context.Context, from, to S, event E, data D) error

// Listener observes a completed transition.
type Listener[S, E comparable, D any] func(ctx context.Context, from, to S, event E, data D)

// Transition defines a state change triggered by an event, with optional guards and actions.
type Transition[S, E comparable, D any] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E, D]  // All must pass for transition to proceed
	Actions []Action[S, E, D] // Executed in order before state change
}

type key[S, E comparable] struct {
	from  S
	event E
}

// Machine is a thread-safe in-memory state machine.
type Machine[S, E comparable, D any] struct {
	mu          sync.RWMutex
	initial     S
	current     S
	transitions map[key[S, E]][]Transition[S, E, D]
	order       []E // events in registration order, for Events
	listeners   []Listener[S, E, D]
}

// New creates a machine in the initial state.
func New[S, E comparable, D any](initial S, opts ...Option[S, E, D]) (*Machine[S, E, D], error) {
	m := &Machine[S, E, D]{
		initial:     initial,
		current:     initial,
		transitions: make(map[key[S, E]][]Transition[S, E, D]),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// MustNew is New that panics on a configuration error.
func MustNew[S, E comparable, D any](initial S, opts ...Option[S, E, D]) *Machine[S, E, D] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

func (m *Machine[S, E, D]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Machine[S, E, D]) addTransition(t Transition[S, E, D]) {
	k := key[S, E]{from: t.From, event: t.Event}
	if _, seen := m.transitions[k]; !seen {
		known := false
		for _, e := range m.order {
			if e == t.Event {
				known = true
				break
			}
		}
		if !known {
			m.order = append(m.order, t.Event)
		}
	}
	m.transitions[k] = append(m.transitions[k], t)
}

// Fire triggers event with data. The first transition whose guards pass is
// taken; its actions run before the state changes.
func (m *Machine[S, E, D]) Fire(ctx context.Context, event E, data D) error {
	m.mu.Lock()

	from := m.current
	t, err := m.match(ctx, event, data)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	for _, action := range t.Actions {
		if err := action(ctx, from, t.To, event, data); err != nil {
			m.mu.Unlock()
			return errors.Join(ErrActionFailed, err)
		}
	}

	m.current = t.To
	listeners := m.listeners
	m.mu.Unlock()

	for _, l := range listeners {
		l(ctx, from, t.To, event, data)
	}
	return nil
}

// CanFire reports whether Fire would find a transition whose guards pass.
// Actions are not run.
func (m *Machine[S, E, D]) CanFire(ctx context.Context, event E, data D) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := m.match(ctx, event, data)
	return err == nil
}

// Events lists the events with at least one transition out of the current
// state, in registration order. Guards are not evaluated.
func (m *Machine[S, E, D]) Events() []E {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []E
	for _, e := range m.order {
		if len(m.transitions[key[S, E]{from: m.current, event: e}]) > 0 {
			events = append(events, e)
		}
	}
	return events
}

// Reset returns the machine to its initial state without running actions
// or listeners.
func (m *Machine[S, E, D]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}

func (m *Machine[S, E, D]) match(ctx context.Context, event E, data D) (Transition[S, E, D], error) {
	candidates := m.transitions[key[S, E]{from: m.current, event: event}]
	if len(candidates) == 0 {
		return Transition[S, E, D]{}, &TransitionError{
			From:  fmt.Sprint(m.current),
			Event: fmt.Sprint(event),
		}
	}

	for _, t := range candidates {
		if guardsPass(ctx, t.Guards, m.current, event, data) {
			return t, nil
		}
	}

	return Transition[S, E, D]{}, &TransitionError{
		From:     fmt.Sprint(m.current),
		Event:    fmt.Sprint(event),
		Rejected: true,
	}
}

func guardsPass[S, E comparable, D any](ctx context.Context, guards []Guard[S, E, D], from S, event E, data D) bool {
	for _, g := range guards {
		if !g(ctx, from, event, data) {
			return false
		}
	}
	return true
}
