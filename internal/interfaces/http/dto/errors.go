package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeBusinessRule      = "ERR_BUSINESS_RULE"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	ErrCodeLimitExceeded     = "ERR_LIMIT_EXCEEDED"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes that do not follow a naming rule to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	"ERR_WEAK_PASSWORD":    http.StatusBadRequest,
	"ERR_FILE_TOO_LARGE":   http.StatusBadRequest,

	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,
	"ERR_TOKEN_MAX_REFRESH":   http.StatusUnauthorized,
	"ERR_INVALID_CREDENTIALS": http.StatusUnauthorized,

	ErrCodeForbidden:        http.StatusForbidden,
	"ERR_NOT_A_FARMER":      http.StatusForbidden,
	"ERR_ACCOUNT_SUSPENDED": http.StatusForbidden,
	"ERR_ACCOUNT_DELETED":   http.StatusForbidden,
	"ERR_ACCOUNT_LOCKED":    http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	"ERR_EMAIL_TAKEN":          http.StatusConflict,
	"ERR_CATEGORY_EXISTS":      http.StatusConflict,
	"ERR_DUPLICATE_SKU":        http.StatusConflict,
	"ERR_DISPUTE_EXISTS":       http.StatusConflict,
	"ERR_ALREADY_SUBSCRIBED":   http.StatusConflict,
	"ERR_REQUEST_IN_PROGRESS":  http.StatusConflict,

	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:      http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
	ErrCodeLimitExceeded:     http.StatusUnprocessableEntity,

	ErrCodeRateLimited: http.StatusTooManyRequests,

	"ERR_INTERNAL_ERROR":      http.StatusInternalServerError,
	"ERR_PASSWORD_HASH_ERROR": http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an API error code.
// Codes missing from the table are classified by name: *_NOT_FOUND is 404,
// INVALID_* is 400 and every other business rule violation is 422.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	bare := strings.TrimPrefix(code, "ERR_")
	switch {
	case strings.HasSuffix(bare, "NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(bare, "INVALID_"):
		return http.StatusBadRequest
	case bare == code:
		return http.StatusInternalServerError
	}
	return http.StatusUnprocessableEntity
}

// NormalizeErrorCode converts a domain error code to the ERR_ API format
func NormalizeErrorCode(code string) string {
	if code == "" {
		return ErrCodeUnknown
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}
