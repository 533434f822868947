package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeBusiness   ErrorType = "business"
	ErrorTypeTransport  ErrorType = "transport"
	ErrorTypeDatabase   ErrorType = "database"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeInternal   ErrorType = "internal"
)

// ServiceError represents a structured service error
type ServiceError struct {
	Type        ErrorType `json:"type"`
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	Details     string    `json:"details,omitempty"`
	InternalErr error     `json:"-"`
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Message, e.Details, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.InternalErr
}

// NewServiceError creates a new service error
func NewServiceError(errorType ErrorType, code, message string) *ServiceError {
	return &ServiceError{
		Type:    errorType,
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithCause creates a new service error wrapping an underlying error
func NewServiceErrorWithCause(errorType ErrorType, code, message string, cause error) *ServiceError {
	return &ServiceError{
		Type:        errorType,
		Code:        code,
		Message:     message,
		InternalErr: cause,
	}
}

// NewTransportError creates an error for a failed remote bot API call
func NewTransportError(operation string, cause error) *ServiceError {
	return &ServiceError{
		Type:        ErrorTypeTransport,
		Code:        "BOT_API_CALL_FAILED",
		Message:     fmt.Sprintf("bot API call %s failed", operation),
		InternalErr: cause,
	}
}

// NewDatabaseError creates an error for a failed store operation
func NewDatabaseError(operation string, cause error) *ServiceError {
	return &ServiceError{
		Type:        ErrorTypeDatabase,
		Code:        "STORE_OPERATION_FAILED",
		Message:     fmt.Sprintf("store operation %s failed", operation),
		InternalErr: cause,
	}
}

// IsType reports whether err is a ServiceError of the given type
func IsType(err error, errorType ErrorType) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Type == errorType
	}
	return false
}

// IsTransport reports whether err originated in a remote bot API call
func IsTransport(err error) bool {
	return IsType(err, ErrorTypeTransport)
}

// IsDatabase reports whether err originated in the membership store
func IsDatabase(err error) bool {
	return IsType(err, ErrorTypeDatabase)
}
