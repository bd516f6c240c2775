package ratelimiter

import "errors"

var (
	// ErrEntryNotFound is returned by stores when the key has no entry.
	ErrEntryNotFound = errors.New("rate limit entry not found")

	// ErrInvalidPolicy indicates a policy that cannot be enforced.
	ErrInvalidPolicy = errors.New("invalid rate limit policy")

	// ErrLimited is returned by Guard when the action is cooling down.
	ErrLimited = errors.New("action is rate limited")
)
