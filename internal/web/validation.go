// Package web - Input validation for web handlers
//
// EDUCATIONAL NOTES:
// ------------------
// Rows inserted over HTTP must be representable as a textual statement too,
// otherwise the REPL could store nothing equivalent and select output would
// be ambiguous. Since statements are split on whitespace, field values must
// be non-empty and contain no whitespace. Length limits are checked later,
// by the same code path the REPL uses.

package web

import "regexp"

// fieldPattern matches a non-empty value without whitespace.
var fieldPattern = regexp.MustCompile(`^\S+$`)

// IsValidField checks if s can be stored as a username or email.
func IsValidField(s string) bool {
	return fieldPattern.MatchString(s)
}
