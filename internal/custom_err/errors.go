package custom_err

import "errors"

var (
	// Account / transaction errors
	ErrNotFound           = errors.New("resource not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrConcurrentConflict = errors.New("concurrent modification conflict")
	ErrAccountExists      = errors.New("account already exists")
	ErrDuplicateRequest   = errors.New("duplicate request")

	// Validation errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidAmount = errors.New("invalid amount")
)
