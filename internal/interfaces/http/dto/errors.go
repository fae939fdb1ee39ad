package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown       = "ERR_UNKNOWN"
	ErrCodeInternal      = "ERR_INTERNAL"
	ErrCodeConfiguration = "ERR_CONFIGURATION"
	ErrCodeTimeout       = "ERR_TIMEOUT"
)

// Input error codes
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource and dependency error codes
const (
	ErrCodeNotFound    = "ERR_NOT_FOUND"
	ErrCodeUpstream    = "ERR_UPSTREAM"
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:       http.StatusInternalServerError,
	ErrCodeInternal:      http.StatusInternalServerError,
	ErrCodeConfiguration: http.StatusServiceUnavailable,
	ErrCodeTimeout:       http.StatusGatewayTimeout,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:    http.StatusNotFound,
	ErrCodeUpstream:    http.StatusBadGateway,
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps shared.DomainError codes to API codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":        ErrCodeNotFound,
	"INVALID_INPUT":    ErrCodeInvalidInput,
	"UNAUTHORIZED":     ErrCodeUnauthorized,
	"FORBIDDEN":        ErrCodeForbidden,
	"CONFIGURATION":    ErrCodeConfiguration,
	"UPSTREAM_FAILURE": ErrCodeUpstream,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
