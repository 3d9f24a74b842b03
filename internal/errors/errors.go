// Package errors defines the typed errors returned across the service layer
// and their mapping onto HTTP status codes.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode is a stable, machine-checkable error kind.
type ErrorCode string

const (
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeUpstream           ErrorCode = "UPSTREAM_ERROR"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded  ErrorCode = "RATE_LIMIT_EXCEEDED"
)

// ServiceError carries an error kind, a client-safe message and the wrapped
// cause. Only Code, Message and Details are ever serialized.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	Details    map[string]interface{}
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a detail key. The receiver is mutated and returned.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code ErrorCode, status int, message string, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// Validation reports malformed or out-of-range input.
func Validation(message string) *ServiceError {
	return newError(ErrCodeValidation, http.StatusBadRequest, message, nil)
}

// Required reports a missing required field.
func Required(field string) *ServiceError {
	return Validation(field+" is required").WithDetails("field", field)
}

// NotFound reports a missing referenced entity.
func NotFound(resource string) *ServiceError {
	return newError(ErrCodeNotFound, http.StatusNotFound, resource+" not found", nil)
}

// Conflict reports a write rejected because the record already exists.
func Conflict(message string, err error) *ServiceError {
	return newError(ErrCodeConflict, http.StatusBadRequest, message, err)
}

// InvalidCredentials reports a login mismatch.
func InvalidCredentials() *ServiceError {
	return newError(ErrCodeInvalidCredentials, http.StatusUnauthorized, "Invalid email or password", nil)
}

func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "Unauthorized"
	}
	return newError(ErrCodeUnauthorized, http.StatusUnauthorized, message, nil)
}

func InvalidToken(err error) *ServiceError {
	return newError(ErrCodeInvalidToken, http.StatusUnauthorized, "Invalid or expired token", err)
}

// Upstream reports a persistence gateway or generator failure, including
// timeouts and malformed generator output.
func Upstream(message string, err error) *ServiceError {
	return newError(ErrCodeUpstream, http.StatusInternalServerError, message, err)
}

func Internal(message string, err error) *ServiceError {
	return newError(ErrCodeInternal, http.StatusInternalServerError, message, err)
}

func RateLimitExceeded(limit int, window string) *ServiceError {
	return newError(ErrCodeRateLimitExceeded, http.StatusTooManyRequests, "Rate limit exceeded", nil).
		WithDetails("limit", limit).
		WithDetails("window", window)
}

// GetServiceError returns the first ServiceError in err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se
	}
	return nil
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	se := GetServiceError(err)
	return se != nil && se.Code == code
}

func IsNotFound(err error) bool   { return IsCode(err, ErrCodeNotFound) }
func IsValidation(err error) bool { return IsCode(err, ErrCodeValidation) }
func IsUpstream(err error) bool   { return IsCode(err, ErrCodeUpstream) }

// HTTPStatus maps any error to a status code; unknown errors are 500.
func HTTPStatus(err error) int {
	if se := GetServiceError(err); se != nil {
		return se.HTTPStatus
	}
	return http.StatusInternalServerError
}
