// Package apierror defines the error taxonomy shared by services and the HTTP
// layer. Services return these errors; handlers and middleware turn them into
// status codes and fail envelopes through Render, so internal details (DB
// errors, stack traces) never reach clients.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNotFound              = errors.New("Not Found")
	ErrUnauthorized          = errors.New("Unauthenticated.")
	ErrDependencyUnavailable = errors.New("Service Unavailable")
)

// ValidationError carries every violated rule, keyed by input field.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidation(fields map[string][]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// DependencyError reports that an external collaborator (text index, cache,
// store) could not serve the request.
type DependencyError struct {
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

func (e *DependencyError) Is(target error) bool { return target == ErrDependencyUnavailable }

func Dependency(name string, err error) error {
	return &DependencyError{Dependency: name, Err: err}
}

// Render maps err to an HTTP status and the data member of a fail envelope.
// Unknown errors become a generic 500 message.
func Render(err error) (int, any) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, verr.Fields
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, ErrNotFound.Error()
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, ErrUnauthorized.Error()
	case errors.Is(err, ErrDependencyUnavailable):
		return http.StatusServiceUnavailable, ErrDependencyUnavailable.Error()
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}
