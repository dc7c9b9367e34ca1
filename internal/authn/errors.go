package authn

import (
	"errors"
	"fmt"
)

// ErrNotConfigured indicates the server address or account is missing,
// so no login can be attempted.
var ErrNotConfigured = errors.New("server credentials are not configured")

// AuthError represents a rejected login or refresh.
type AuthError struct {
	Op     string // "login" or "refresh"
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s failed: HTTP %d", e.Op, e.Status)
}
