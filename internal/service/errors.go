package service

import "errors"

// The business-rule error taxonomy. Every rejected mutation wraps one of
// these and leaves all entities untouched; handlers map them to HTTP codes
// with errors.Is. Storage failures pass through unwrapped and surface as a
// generic server error.
var (
	// ErrNotFound covers both genuinely absent entities and entities hidden
	// for access control (visibility-as-404 never leaks existence).
	ErrNotFound = errors.New("not found")
	// ErrForbidden: the authenticated actor lacks rights over the entity.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState: the operation is not legal in the current lifecycle
	// state.
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict: the operation would violate an at-most-one invariant.
	ErrConflict = errors.New("conflict")
	// ErrPrecondition: a required prior step has not happened yet.
	ErrPrecondition = errors.New("precondition failed")
	// ErrValidation: malformed or incomplete input.
	ErrValidation = errors.New("invalid input")
)
