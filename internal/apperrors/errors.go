package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInsufficientFunds indicates a debit was attempted against a balance too small to cover it.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInvalidState indicates an operation was attempted from a state that does not permit it.
var ErrInvalidState = errors.New("operation not permitted in current state")

// ErrRateLimited indicates the caller exceeded the transfer velocity limit.
var ErrRateLimited = errors.New("transfer rate limit exceeded")

// ErrAlreadyResolved indicates a dispute resolution was retried after it already completed.
var ErrAlreadyResolved = errors.New("dispute already resolved")

// ErrSelfTransfer indicates a transfer where sender and recipient are the same user.
var ErrSelfTransfer = errors.New("cannot transfer to self")

// ErrRecipientNotFound indicates the transfer recipient does not exist or is inactive.
var ErrRecipientNotFound = errors.New("recipient not found or inactive")

// ErrForbidden indicates the authenticated user may not perform the operation.
var ErrForbidden = errors.New("forbidden")

// AppError wraps a lower-level failure (usually from the persistence layer)
// with an HTTP-ish status code and a human-readable message.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError wrapping err.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that matches errors.Is(err, ErrNotFound).
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}

// IsPersistence reports whether err is a storage-layer failure. Nothing partial
// was committed, so the whole operation is safe to retry from scratch.
func IsPersistence(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code >= 500
}
