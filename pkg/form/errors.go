package form

import "errors"

var (
	// ErrInFlight is returned when Submit is called while a submission is pending.
	ErrInFlight = errors.New("form: submission already in flight")

	// ErrSuppressed marks a failure that was deliberately hidden from the user.
	ErrSuppressed = errors.New("form: error suppressed")
)
