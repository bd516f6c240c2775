// Package autherr classifies identity-provider failures into a closed set of
// kinds and turns them into user-facing messages.
//
// The identity adapter wraps every provider failure in *Error with its Kind
// already set, so most lookups are a single errors.As. Errors that reach the
// classifier without a kind (wrapped by other layers, or produced by tests
// and fakes) fall back to ordered, case-insensitive substring matching on the
// provider error code and message; the first match wins.
//
// Every function in the package is pure: the same error always yields the
// same kind, message and predicates.
package autherr
