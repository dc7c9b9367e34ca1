package remote

import (
	"errors"
	"fmt"
)

// ServerError represents a non-200 application response. Retryable: the
// orchestrator treats it like a network failure and keeps local data.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: HTTP %d", e.Status)
}

// IsServerError reports whether err carries a non-200 server response.
func IsServerError(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}
