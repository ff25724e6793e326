package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeDuplicateRequest, http.StatusConflict},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeUnavailable, http.StatusServiceUnavailable},
		// Unmapped codes are server errors
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestDomainCodesPassThrough(t *testing.T) {
	assert.Equal(t, "INSUFFICIENT_STOCK", ErrCodeInsufficientStock)
	assert.Equal(t, "UNKNOWN", ErrCodeUnknown)
	assert.Equal(t, "DUPLICATE_REQUEST", ErrCodeDuplicateRequest)
}

func TestNewErrorResponse_JSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Sale not found", "req-1")

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"success":false,"error":{"code":"NOT_FOUND","message":"Sale not found","request_id":"req-1"}}`,
		string(raw))
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{
		{Field: "quantity", Message: "This field is required"},
	})

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "quantity", resp.Error.Details[0].Field)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 2, 20)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(41), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	empty := NewSuccessResponseWithMeta(nil, 5, 1, 0)
	assert.Equal(t, 0, empty.Meta.TotalPages)
}
