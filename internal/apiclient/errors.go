package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is the auth-expired signal (HTTP 401 or envelope code 401)
	ErrUnauthorized = errors.New("authentication expired")

	// ErrSessionExpired means the session could not be renewed and was cleared
	ErrSessionExpired = errors.New("session expired")

	// ErrNotAuthenticated is returned by operations that need a session when none exists
	ErrNotAuthenticated = errors.New("not authenticated")
)

// TransportError is a network failure, an unreadable response, or a non-2xx
// response that carries no envelope
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: unexpected status %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError is an envelope whose code is outside the success set.
// Error() returns the server message unchanged so call sites can show it as is.
type APIError struct {
	Status  int // HTTP status
	Code    int // envelope code
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with code %d", e.Code)
	}
	return e.Message
}

// Is reports ErrUnauthorized for code 401
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Code == http.StatusUnauthorized
}

// RefreshError is returned to every request queued behind a failed refresh
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	if e.Err == nil {
		return ErrSessionExpired.Error()
	}
	return fmt.Sprintf("%s: %v", ErrSessionExpired, e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// Is reports ErrSessionExpired
func (e *RefreshError) Is(target error) bool {
	return target == ErrSessionExpired
}

// IsSessionExpired reports whether err means the user has to log in again
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}
