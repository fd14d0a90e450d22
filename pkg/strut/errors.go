package strut

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrDuplicateRegistration is returned when the same controller name is
// registered twice. Fatal at build time.
var ErrDuplicateRegistration = errors.New("duplicate controller registration")

// ErrRouteConflict is returned when two methods compile to the same
// (httpMethod, fullPath) pair. Fatal at build time.
var ErrRouteConflict = errors.New("route conflict")

// ValidationIssue describes a single schema violation.
type ValidationIssue struct {
	// Path locates the offending value inside the validated document
	// (empty for scalar values).
	Path string `json:"path,omitempty"`

	// Message is the human-readable reason.
	Message string `json:"message"`
}

// ValidationError is raised when a bound parameter fails schema validation.
// The validation middleware converts it into a structured 400 response; the
// handler is never invoked.
type ValidationError struct {
	// Location is the request section that failed: body, query, params or
	// headers.
	Location string `json:"location"`

	// Name is the parameter name for single-value bindings, empty otherwise.
	Name string `json:"name,omitempty"`

	// Issues lists the individual violations.
	Issues []ValidationIssue `json:"issues"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "validation failed in %s", e.Location)
	if e.Name != "" {
		fmt.Fprintf(&b, " (%s)", e.Name)
	}
	for _, issue := range e.Issues {
		b.WriteString(": ")
		b.WriteString(issue.Message)
	}
	return b.String()
}

// HttpError represents an HTTP error with a specific status code and message
type HttpError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewHttpError creates a new HttpError with the given status code and message
func NewHttpError(statusCode int, message string) *HttpError {
	return &HttpError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewHttpErrorWithDetails creates a new HttpError with additional details
func NewHttpErrorWithDetails(statusCode int, message string, details any) *HttpError {
	return &HttpError{
		StatusCode: statusCode,
		Message:    message,
		Details:    details,
	}
}

// Common HTTP error constructors for convenience

// ErrBadRequest creates a 400 Bad Request error
func ErrBadRequest(message string) *HttpError {
	return NewHttpError(http.StatusBadRequest, message)
}

// ErrUnauthorized creates a 401 Unauthorized error
func ErrUnauthorized(message string) *HttpError {
	return NewHttpError(http.StatusUnauthorized, message)
}

// ErrForbidden creates a 403 Forbidden error
func ErrForbidden(message string) *HttpError {
	return NewHttpError(http.StatusForbidden, message)
}

// ErrNotFound creates a 404 Not Found error
func ErrNotFound(message string) *HttpError {
	return NewHttpError(http.StatusNotFound, message)
}

// ErrConflict creates a 409 Conflict error
func ErrConflict(message string) *HttpError {
	return NewHttpError(http.StatusConflict, message)
}

// ErrUnprocessableEntity creates a 422 Unprocessable Entity error
func ErrUnprocessableEntity(message string) *HttpError {
	return NewHttpError(http.StatusUnprocessableEntity, message)
}

// ErrInternalServerError creates a 500 Internal Server Error
func ErrInternalServerError(message string) *HttpError {
	return NewHttpError(http.StatusInternalServerError, message)
}
