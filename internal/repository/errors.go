// Package repository defines error values reused across multiple
// repositories.  These sentinel values let handlers distinguish
// failure scenarios without inspecting driver errors: ErrForbidden
// maps to HTTP 403 when an operator touches a resource owned by
// someone else.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on
// a resource they do not own.
var ErrForbidden = errors.New("forbidden")
