// Package binder decodes request data into structs for handler.Wrap.
//
// Form binds application/x-www-form-urlencoded and multipart/form-data
// bodies using `form` tags; Query binds the URL query using `query` tags.
// A field without a tag binds the lowercased field name, and "-" skips it.
// Strings, signed and unsigned integers, floats, bools, pointers to those
// and slices are supported.
//
// A binder that does not apply to a request (Form on a request without a
// form body) returns ErrBinderNotApplicable, and Wrap moves on to the next
// binder. That lets one handler serve GET and POST with the same request
// type.
package binder
