package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by all bounded contexts
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeDuplicateRequest    = "DUPLICATE_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeUnknown             = "UNKNOWN"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code,
// so errors.Is(err, ErrNotFound) matches any NOT_FOUND error.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewInvalidInputError creates an INVALID_INPUT error with a formatted message
func NewInvalidInputError(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidInput, fmt.Sprintf(format, args...))
}

// NewNotFoundError creates a NOT_FOUND error with a formatted message
func NewNotFoundError(format string, args ...any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf(format, args...))
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrDuplicateRequest    = NewDomainError(CodeDuplicateRequest, "A request with this idempotency key was already accepted")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrUnknown             = NewDomainError(CodeUnknown, "The operation could not be completed, please refresh and try again")
)

// ErrorCode returns the DomainError code carried by err, or CodeUnknown
func ErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnknown
}

// IsConcurrencyConflict reports whether err is an optimistic-lock failure
func IsConcurrencyConflict(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsBusinessError reports whether err is a DomainError that callers
// should see as-is (everything except conflicts and unknown outcomes)
func IsBusinessError(err error) bool {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return false
	}
	return domainErr.Code != CodeConcurrencyConflict && domainErr.Code != CodeUnknown
}
