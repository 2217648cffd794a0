package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized means the backend refused the token, or there was no token to send
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a failure the backend reported itself, usually as {"success": false, "msg": ...}
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend reported failure (status %d)", e.Status)
	}
	return e.Message
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && (e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

// TransportError covers everything where the backend never gave a usable answer:
// network failures, timeouts, bodies we can't decode, bare error statuses
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerMessage returns the backend's own failure message, if err carries one
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}
