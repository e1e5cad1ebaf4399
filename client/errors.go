package client

import (
	"errors"
	"fmt"
)

// ErrAuthExpired is matched by errors.Is for 401 responses to calls that need
// a session. Rejected logins report CodeInvalidCredentials instead.
var ErrAuthExpired = errors.New("authentication expired")

// CodeInvalidCredentials is the error code of a login with a wrong email or password.
const CodeInvalidCredentials = "INVALID_CREDENTIALS"

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Field   string // set for field-level validation failures
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("api %d %s: %s: %s", e.Status, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.Status == 401 && e.Code != CodeInvalidCredentials {
		return ErrAuthExpired
	}
	return nil
}

// NetworkError reports a request that never produced an HTTP response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Message returns the text a user should see for err.
func Message(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case errors.Is(err, ErrAuthExpired):
		return "Your session has expired. Please sign in again."
	default:
		var netErr *NetworkError
		if errors.As(err, &netErr) {
			return "Could not reach the server. Please try again."
		}
		return err.Error()
	}
}
