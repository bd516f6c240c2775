// Package sanitizer normalises user input before it is validated or sent to
// the identity provider and database.
//
// Helpers are plain func(string) string values so they compose:
//
//	clean := sanitizer.Compose(sanitizer.Trim, sanitizer.ToLower)
//	email := clean("  Jane@Example.COM ") // "jane@example.com"
//
// NormalizeName uses golang.org/x/text to put names in Unicode NFC form, so
// that "É" typed as E + combining accent and the precomposed rune compare
// equal, and to fix the casing of names typed entirely in one case.
package sanitizer
