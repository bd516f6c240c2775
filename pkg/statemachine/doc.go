// Package statemachine implements a small, generic, thread-safe finite state
// machine.
//
// States and events are any comparable types, usually string-based enums. A
// Machine is configured once at construction with transitions; each
// transition may carry guards, which must all pass for it to be taken, and
// actions, which run in order before the state changes and abort the
// transition on error. When several transitions share a source state and
// event, the first one whose guards pass wins, which allows guard-based
// branching in priority order.
//
//	type opt = statemachine.Option[Step, Event, *Data]
//
//	m := statemachine.MustNew(StepLogin,
//	    opt(statemachine.WithTransition[Step, Event, *Data](StepLogin, StepSignup, EventShowSignup)),
//	    statemachine.WithTransition(StepSignup, StepConfirm, EventSignedUp,
//	        statemachine.WithAction[Step, Event, *Data](remember)),
//	)
//	err := m.Fire(ctx, EventShowSignup, data)
//
// Listeners registered with WithListener observe every completed transition.
// They run after the machine lock is released, so they may read Current.
package statemachine
