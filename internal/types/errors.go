package types

import "fmt"

// ErrorCode is a typed string categorizing application errors.
type ErrorCode string

const (
	// ErrCodeInternalDB wraps transactional-store failures. These are fatal
	// to an invocation: the batch reports failure and is safe to resubmit.
	ErrCodeInternalDB ErrorCode = "internal_database_error"

	// ErrCodeObjectStorage wraps object-storage failures. Fatal when the
	// input object cannot be read; best-effort on the archive write path.
	ErrCodeObjectStorage ErrorCode = "object_storage_error"

	// ErrCodeBadEvent indicates an invocation payload that could not be
	// interpreted as a batch notification.
	ErrCodeBadEvent ErrorCode = "bad_event_payload"
)

// AppError is the structured error type carried across package boundaries.
// Code categorizes the failure, Message is safe for responses, Err holds
// the wrapped cause for logs.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// NewAppError creates an AppError wrapping the given cause. The cause may
// be nil.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause for errors.Is/errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}
