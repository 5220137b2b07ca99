package errors

import (
	"fmt"
)

// AppError is the service-wide error shape. StatusCode is the HTTP status
// the error maps to; Details carries machine-readable context such as field
// pointers for validation failures.
type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails returns a copy carrying the given details. The sentinel
// errors in codes.go are shared; mutating them in place would leak request
// data between callers.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// WithField returns a copy pointing at the offending request field.
func (e *AppError) WithField(field string, value interface{}) *AppError {
	return e.WithDetails(map[string]interface{}{
		"field": field,
		"value": value,
	})
}
