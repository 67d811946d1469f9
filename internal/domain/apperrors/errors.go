// Package apperrors defines the error taxonomy shared by services and handlers.
// Handlers translate these into HTTP statuses at the request boundary.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned for actions that need a live Instagram session.
	ErrNotConnected = errors.New("instagram not connected")
	// ErrInvalidTransition is returned when an OAuth action is not valid from the current state.
	ErrInvalidTransition = errors.New("invalid connection state transition")
	// ErrCancelled reports that the user closed the authorization popup without finishing.
	ErrCancelled = errors.New("authorization cancelled")
	// ErrNotFound is returned by lookups that found nothing.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports missing or malformed request input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError reports a failed call to the remote OAuth endpoints.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream returned status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// RemoteFetchError reports a failed authenticated read against the graph API.
type RemoteFetchError struct {
	Resource   string
	StatusCode int
	Err        error
}

func (e *RemoteFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch instagram %s: status %d: %v", e.Resource, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("failed to fetch instagram %s: %v", e.Resource, e.Err)
}

func (e *RemoteFetchError) Unwrap() error { return e.Err }

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsUpstream reports whether err is or wraps an UpstreamError.
func IsUpstream(err error) bool {
	var u *UpstreamError
	return errors.As(err, &u)
}

// IsRemoteFetch reports whether err is or wraps a RemoteFetchError.
func IsRemoteFetch(err error) bool {
	var r *RemoteFetchError
	return errors.As(err, &r)
}
