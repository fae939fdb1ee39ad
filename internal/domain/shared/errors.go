package shared

import (
	"errors"
	"fmt"
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

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized  = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden     = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrConfiguration = NewDomainError("CONFIGURATION", "Required configuration is missing or invalid")
	ErrUpstream      = NewDomainError("UPSTREAM_FAILURE", "Upstream service request failed")
)

// UpstreamError describes a failed call to a third-party data provider.
// errors.Is(err, ErrUpstream) reports true for every UpstreamError.
type UpstreamError struct {
	Service string
	Op      string
	Status  int
	Err     error
}

// NewUpstreamError wraps err as a failure of service/op.
func NewUpstreamError(service, op string, status int, err error) *UpstreamError {
	return &UpstreamError{Service: service, Op: op, Status: status, Err: err}
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Service, e.Op)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is matches ErrUpstream so callers can branch without a type assertion.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// ConfigError reports a missing or invalid setting for a component.
func ConfigError(component, setting string) error {
	return fmt.Errorf("%w: %s requires %s", ErrConfiguration, component, setting)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
