package driven

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoRefreshCredential is wrapped by SessionExpiredError when a refresh was
// needed but nothing was stored.
var ErrNoRefreshCredential = errors.New("no refresh credential stored")

// NetworkError means the request never produced a response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: no response received from server: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError means the server answered with a failure status.
type HTTPError struct {
	Method  string
	Path    string
	Status  int
	Body    []byte
	Message string

	// Fields holds per-field messages of a validation body, keyed by field.
	Fields map[string][]string

	// AuthFailure is set for 401s on the login and refresh endpoints, which
	// never trigger a credential refresh.
	AuthFailure bool
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("%s %s: request failed with status code %d", e.Method, e.Path, e.Status)
}

// Unauthorized reports whether the server rejected the credential.
func (e *HTTPError) Unauthorized() bool { return e.Status == http.StatusUnauthorized }

// UnexpectedError covers failures that are neither transport nor status
// errors, such as an undecodable success body.
type UnexpectedError struct {
	Op  string
	Err error
}

func (e *UnexpectedError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *UnexpectedError) Unwrap() error { return e.Err }

// SessionExpiredError means the access credential could not be refreshed and
// all stored credentials were cleared.
type SessionExpiredError struct {
	Err error
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("session expired, please sign in again: %v", e.Err)
}

func (e *SessionExpiredError) Unwrap() error { return e.Err }

// IsSessionExpired reports whether err carries a SessionExpiredError.
func IsSessionExpired(err error) bool {
	var se *SessionExpiredError
	return errors.As(err, &se)
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}
