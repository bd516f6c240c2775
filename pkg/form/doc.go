// Package form drives the submission of one HTML form: validate the input,
// refuse a second submission while one is in flight, call the submit
// function and turn its failure into the banner message shown above the form.
//
// A Controller is created per mounted form and owns that form's State.
// Failures are classified with pkg/autherr; a hook registered with
// WithIntercept sees the error first and can take it over, which is how the
// login form redirects unconfirmed accounts to the confirmation step instead
// of showing an error.
package form
