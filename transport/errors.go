package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable wraps network, timeout and decoding failures.
	ErrUnavailable = errors.New("authentication service unavailable")
	// ErrRejected is wrapped by every *ServerError.
	ErrRejected = errors.New("authentication service rejected the request")
)

// ServerError is a non-2xx response from the service.
type ServerError struct {
	Status  int
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func (e *ServerError) Unwrap() error { return ErrRejected }

// Message extracts the service's human-readable message from err, or "".
func Message(err error) string {
	var se *ServerError
	if errors.As(err, &se) {
		return se.Message
	}
	return ""
}
