package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Nesta error code.
type ErrorCode string

const (
	ErrConfiguration  ErrorCode = "CONFIGURATION"   // 400
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrIntegrity      ErrorCode = "INTEGRITY"       // 422
	ErrParse          ErrorCode = "PARSE"           // 422
	ErrNetwork        ErrorCode = "NETWORK"         // 502
	ErrFilesystem     ErrorCode = "FILESYSTEM"      // 500
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// NestaError represents a structured error with code, status, and details.
type NestaError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	Cause   error
}

// Error implements the error interface.
func (e *NestaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *NestaError) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a detail key and returns the same error for chaining.
func (e *NestaError) WithDetail(key string, value any) *NestaError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewConfiguration creates an error for missing or invalid setup
// (no catalog URL, no bundle, no template list).
func NewConfiguration(msg string) *NestaError {
	return &NestaError{
		Code:    ErrConfiguration,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *NestaError {
	return &NestaError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error. kind names what was looked up ("template", "export file").
func NewNotFound(kind, identifier string) *NestaError {
	return &NestaError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewConflict creates a 409 error for operations attempted in the wrong state.
func NewConflict(msg string) *NestaError {
	return &NestaError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewIntegrity creates an error for a checksum mismatch.
func NewIntegrity(expected, actual string) *NestaError {
	return &NestaError{
		Code:    ErrIntegrity,
		Status:  422,
		Message: "checksum mismatch",
		Details: map[string]any{"expected": expected, "actual": actual},
	}
}

// NewParse creates an error for malformed input (catalog body, export XML, manifest).
func NewParse(msg string, cause error) *NestaError {
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &NestaError{
		Code:    ErrParse,
		Status:  422,
		Message: msg,
		Cause:   cause,
	}
}

// NewNetwork creates an error for failed or non-200 remote requests.
func NewNetwork(url string, status int, cause error) *NestaError {
	msg := fmt.Sprintf("request to %s failed", url)
	switch {
	case cause != nil:
		msg = fmt.Sprintf("%s: %v", msg, cause)
	case status != 0:
		msg = fmt.Sprintf("%s: status %d", msg, status)
	}
	return &NestaError{
		Code:    ErrNetwork,
		Status:  502,
		Message: msg,
		Details: map[string]any{"url": url, "status": status},
		Cause:   cause,
	}
}

// NewFilesystem creates an error for failed local file operations.
func NewFilesystem(op, path string, cause error) *NestaError {
	msg := fmt.Sprintf("%s %s", op, path)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &NestaError{
		Code:    ErrFilesystem,
		Status:  500,
		Message: msg,
		Details: map[string]any{"path": path},
		Cause:   cause,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *NestaError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &NestaError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		Cause:   err,
	}
}

// Is checks if err (or anything it wraps) is a NestaError with the given code.
func Is(err error, code ErrorCode) bool {
	var nErr *NestaError
	if stderrors.As(err, &nErr) {
		return nErr.Code == code
	}
	return false
}

// As returns the first NestaError in err's chain.
func As(err error) (*NestaError, bool) {
	var nErr *NestaError
	if stderrors.As(err, &nErr) {
		return nErr, true
	}
	return nil, false
}
