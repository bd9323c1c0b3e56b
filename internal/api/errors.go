package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthenticationRequired is returned when no usable token is
	// available. No request is sent in that case.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrPermissionDenied is returned for HTTP 403 responses.
	ErrPermissionDenied = errors.New("permission denied")
)

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d on %s %s", e.Code, e.Method, e.Path)
	}
	return fmt.Sprintf("api error (%d) on %s %s: %s", e.Code, e.Method, e.Path, e.Message)
}

// Is maps 401 and 403 onto the package sentinels so callers can use
// errors.Is without inspecting codes.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrAuthenticationRequired:
		return e.Code == http.StatusUnauthorized
	case ErrPermissionDenied:
		return e.Code == http.StatusForbidden
	}
	return false
}

// NetworkError wraps a transport failure: the request never produced an
// HTTP response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("executing request %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsAuthRequired reports whether err means the caller must sign in again.
func IsAuthRequired(err error) bool {
	return errors.Is(err, ErrAuthenticationRequired)
}

// IsPermissionDenied reports whether err (or any error in its chain) is a
// permission failure, local or from the backend.
func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsInvalidTransition reports whether the backend rejected a request on
// business-rule grounds (400, 409 or 422).
func IsInvalidTransition(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	switch statusErr.Code {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return 0
}
