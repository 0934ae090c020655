package registry

import (
	"errors"
	"fmt"
)

// OpError represents a failure of a ledger operation.
//
// Every failure is an ordinary, caller-visible outcome - there is no
// fatal tier. A failing operation commits nothing: no id is consumed,
// no audit entry is appended, no event is emitted.
//
// OpError includes structured fields for diagnostics.
type OpError struct {
	// Code identifies the failure category.
	Code OpErrorCode

	// Message is a human-readable description.
	Message string

	// Op names the failing operation ("register_act", "approve_override", ...).
	Op string

	// Principal is the caller, when relevant to the failure.
	Principal string

	// EntityID identifies the affected record, when known.
	EntityID int64
}

// OpErrorCode categorizes operation failures.
type OpErrorCode string

const (
	// ErrCodeUnauthorized indicates the caller lacks the required capability.
	ErrCodeUnauthorized OpErrorCode = "UNAUTHORIZED"

	// ErrCodeEmptyField indicates a required string argument was blank.
	ErrCodeEmptyField OpErrorCode = "EMPTY_FIELD"

	// ErrCodeDuplicateBusinessNumber indicates the business number was
	// already used by an act, at any point in the ledger's lifetime.
	ErrCodeDuplicateBusinessNumber OpErrorCode = "DUPLICATE_BUSINESS_NUMBER"

	// ErrCodeDuplicateVersion indicates the version code was already registered.
	ErrCodeDuplicateVersion OpErrorCode = "DUPLICATE_VERSION"

	// ErrCodeNotFound indicates an unknown id or key.
	ErrCodeNotFound OpErrorCode = "NOT_FOUND"

	// ErrCodeAlreadyClosed indicates the act left the pending state before
	// a pending-only operation reached it.
	ErrCodeAlreadyClosed OpErrorCode = "ALREADY_CLOSED"

	// ErrCodeAlreadyApproved indicates a second approval of the same override.
	ErrCodeAlreadyApproved OpErrorCode = "ALREADY_APPROVED"
)

// Error implements the error interface.
func (e *OpError) Error() string {
	switch {
	case e.Principal != "" && e.EntityID != 0:
		return fmt.Sprintf("%s: %s: %s (principal=%s, id=%d)", e.Op, e.Code, e.Message, e.Principal, e.EntityID)
	case e.Principal != "":
		return fmt.Sprintf("%s: %s: %s (principal=%s)", e.Op, e.Code, e.Message, e.Principal)
	case e.EntityID != 0:
		return fmt.Sprintf("%s: %s: %s (id=%d)", e.Op, e.Code, e.Message, e.EntityID)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Message)
}

// CodeOf extracts the OpErrorCode from an error, or "" if the error is
// not an OpError. Uses errors.As to handle wrapped errors.
func CodeOf(err error) OpErrorCode {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Code
	}
	return ""
}

// IsUnauthorized returns true if the error is a capability check failure.
func IsUnauthorized(err error) bool {
	return CodeOf(err) == ErrCodeUnauthorized
}

// IsNotFound returns true if the error reports an unknown id or key.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsAlreadyClosed returns true if the error reports a terminal-state act.
func IsAlreadyClosed(err error) bool {
	return CodeOf(err) == ErrCodeAlreadyClosed
}
