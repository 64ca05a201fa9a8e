// Package errors provides error code definitions shared across the backend.
package errors

import "fmt"

// ErrorCode identifies an error class that the UI shell can branch on.
type ErrorCode string

const (
	// General errors
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
	ErrInvalid    ErrorCode = "INVALID_INPUT"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrPermission ErrorCode = "PERMISSION_DENIED"

	// Database errors
	ErrDatabase  ErrorCode = "DATABASE_ERROR"
	ErrMigration ErrorCode = "MIGRATION_FAILED"

	// Archive errors
	ErrCorruptArchive     ErrorCode = "CORRUPT_ARCHIVE"
	ErrUnsupportedVersion ErrorCode = "UNSUPPORTED_VERSION"
	ErrIO                 ErrorCode = "IO_ERROR"
	ErrConflictUnresolved ErrorCode = "CONFLICT_UNRESOLVED"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Is checks if an error carries a specific code. It walks the wrap chain so
// codes survive fmt.Errorf("%w") wrapping.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			return appErr.Code == code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
