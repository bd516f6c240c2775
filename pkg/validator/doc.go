// Package validator provides small, composable validation rules for form
// input.
//
// Each exported helper builds a Rule: a Check func paired with the
// ValidationError reported when the check fails. Apply evaluates rules in
// order and aggregates failures into ValidationErrors, which implements the
// error interface. The package holds no state and is safe for concurrent use.
//
//	err := validator.Apply(
//	    validator.ValidEmail("email", email),
//	    validator.MinLen("password", pass, 8).
//	        WithMessage("Password must be at least 8 characters"),
//	)
//	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//	    fields := verrs.FieldMap() // first message per field
//	}
//
// Rules never panic; a malformed value simply fails its check.
package validator
