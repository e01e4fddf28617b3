package shared

import "errors"

var (
	// ErrNotFound indicates the target record, request, or trash entry is absent.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict indicates a duplicate name, duplicate open request, or reused transaction id.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientBalance indicates a withdrawal exceeding the computed balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrUnauthorized indicates a missing or unresolvable credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the principal lacks the required capability.
	ErrForbidden = errors.New("forbidden")
)
