package dto

import (
	"net/http"

	"github.com/inventrack/backend/internal/domain/shared"
)

// Domain error codes, sent to clients unchanged
const (
	ErrCodeInvalidInput        = shared.CodeInvalidInput
	ErrCodeNotFound            = shared.CodeNotFound
	ErrCodeAlreadyExists       = shared.CodeAlreadyExists
	ErrCodeInsufficientStock   = shared.CodeInsufficientStock
	ErrCodeConcurrencyConflict = shared.CodeConcurrencyConflict
	ErrCodeDuplicateRequest    = shared.CodeDuplicateRequest
	ErrCodeUnauthorized        = shared.CodeUnauthorized
	ErrCodeUnknown             = shared.CodeUnknown
)

// Transport error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request binding fails validation
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeTokenExpired is used when the bearer token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the bearer token cannot be verified
	ErrCodeTokenInvalid = "INVALID_TOKEN"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeRateLimited is used when a caller exceeds the write rate limit
	ErrCodeRateLimited = "RATE_LIMIT_EXCEEDED"
	// ErrCodeUnavailable is used by the health check when a dependency is down
	ErrCodeUnavailable = "UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeInsufficientStock:   http.StatusUnprocessableEntity,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateRequest:    http.StatusConflict,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeUnknown:             http.StatusInternalServerError,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
