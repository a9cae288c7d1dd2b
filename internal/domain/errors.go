package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Application error codes
const (
	EVALIDATION = "VALIDATION_ERROR" // Invalid input or validation failure
	EAUTH       = "AUTH_ERROR"       // Authentication required or failed
	EFORBIDDEN  = "FORBIDDEN_ERROR"  // Permission denied
	ENOTFOUND   = "NOT_FOUND_ERROR"  // Resource not found
	ECONFLICT   = "CONFLICT_ERROR"   // Resource conflict (e.g., duplicate)
	ERATELIMIT  = "RATE_LIMIT_ERROR" // Rate limit exceeded
	EINTERNAL   = "INTERNAL_ERROR"   // Internal server error
)

// AppError is an operational application error. Status and code are fixed by
// the constructor; callers only choose the message and, for validation
// failures, the details.
type AppError struct {
	Op      string // Operation that failed (e.g., "UserService.Register"), never sent to clients
	Message string // Human-readable message
	Details any    // Optional structured details (e.g., field violations)
	Err     error  // Underlying error

	status int
	code   string
}

func (e *AppError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status associated with the error.
func (e *AppError) StatusCode() int { return e.status }

// Code returns the machine-readable error code.
func (e *AppError) Code() string { return e.code }

// IsOperational reports whether the error is an anticipated failure mode.
// Every AppError is.
func (e *AppError) IsOperational() bool { return true }

// HasDetails reports whether a details value was supplied.
func (e *AppError) HasDetails() bool { return e.Details != nil }

// WithOp records the failing operation and returns the error for chaining.
func (e *AppError) WithOp(op string) *AppError {
	e.Op = op
	return e
}

// Wrap records an underlying cause and returns the error for chaining.
func (e *AppError) Wrap(err error) *AppError {
	e.Err = err
	return e
}

// FieldViolation describes a single invalid request field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewAppError creates an AppError with an arbitrary status and code.
func NewAppError(message string, status int, code string) *AppError {
	return &AppError{Message: message, status: status, code: code}
}

// NewValidationError creates a 400 error. details may be an empty slice but
// a nil details value is stored as an empty violation list.
func NewValidationError(message string, details any) *AppError {
	if details == nil {
		details = []FieldViolation{}
	}
	e := newVariant(message, "Validation failed", http.StatusBadRequest, EVALIDATION)
	e.Details = details
	return e
}

// NewAuthError creates a 401 error.
func NewAuthError(message string) *AppError {
	return newVariant(message, "Authentication failed", http.StatusUnauthorized, EAUTH)
}

// NewForbiddenError creates a 403 error.
func NewForbiddenError(message string) *AppError {
	return newVariant(message, "Access forbidden", http.StatusForbidden, EFORBIDDEN)
}

// NewNotFoundError creates a 404 error.
func NewNotFoundError(message string) *AppError {
	return newVariant(message, "Resource not found", http.StatusNotFound, ENOTFOUND)
}

// NewConflictError creates a 409 error.
func NewConflictError(message string) *AppError {
	return newVariant(message, "Resource conflict", http.StatusConflict, ECONFLICT)
}

func newVariant(message, fallback string, status int, code string) *AppError {
	if message == "" {
		message = fallback
	}
	return &AppError{Message: message, status: status, code: code}
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// ErrorCode returns the code of the first AppError in the chain, or EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if ae, ok := AsAppError(err); ok {
		return ae.code
	}
	return EINTERNAL
}

// ErrorOp returns the operation of the first AppError in the chain, if any.
func ErrorOp(err error) string {
	if ae, ok := AsAppError(err); ok {
		return ae.Op
	}
	return ""
}
