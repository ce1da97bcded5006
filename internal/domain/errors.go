package domain

import (
	"fmt"
	"net/http"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ValidationError is malformed caller input.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return e.Reason
}

func (e ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	return ok
}

var ErrValidation = ValidationError{}

// DiscoveryError is any failure resolving a remote identity to its profile.
type DiscoveryError struct {
	Reason string
	Status int
	Cause  error
}

func (e DiscoveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%v)", e.Reason, e.Cause)
	}
	return e.Reason
}

func (e DiscoveryError) Unwrap() error {
	return e.Cause
}

func (e DiscoveryError) StatusCode() int {
	if e.Status == 0 {
		return http.StatusNotFound
	}
	return e.Status
}

// HandshakeError means the notification probe did not answer 200. Status is
// zero when the probe never got a response.
type HandshakeError struct {
	URL    string
	Status int
	Cause  error
}

func (e HandshakeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("could not notify to %s (%v)", e.URL, e.Cause)
	}
	return fmt.Sprintf("could not notify to %s", e.URL)
}

func (e HandshakeError) Unwrap() error {
	return e.Cause
}

func (e HandshakeError) StatusCode() int {
	if e.Status == 0 {
		return http.StatusBadGateway
	}
	return e.Status
}

// StatusCoder is implemented by errors that map onto an HTTP status.
type StatusCoder interface {
	StatusCode() int
}
