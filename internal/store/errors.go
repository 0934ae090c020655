package store

import "errors"

// Sentinel errors for precondition failures detected inside store
// transactions. The registry layer wraps these into caller-facing
// operation errors; tests match them with errors.Is.
var (
	// ErrNotFound reports an unknown id or secondary key.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateBusinessNumber reports a business number already used
	// by any act ever created.
	ErrDuplicateBusinessNumber = errors.New("business number already registered")

	// ErrDuplicateVersion reports a version code already registered.
	ErrDuplicateVersion = errors.New("version code already registered")

	// ErrActClosed reports a pending-only operation attempted on an act
	// in a terminal state.
	ErrActClosed = errors.New("act is closed")

	// ErrAlreadyApproved reports a second approval of the same override.
	ErrAlreadyApproved = errors.New("override already approved")
)
