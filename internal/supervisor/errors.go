package supervisor

import (
	"errors"
	"fmt"
)

// ErrServiceUnavailable is matched (errors.Is) by every error a supervisor
// returns when it cannot hand out a verified connection.
var ErrServiceUnavailable = errors.New("service unavailable")

// ConnectionError is returned when an establishment sequence exhausted its
// retry budget. It matches ErrServiceUnavailable and unwraps to the error of
// the last attempt.
type ConnectionError struct {
	Service  string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: failed to connect after %d attempts: %v", e.Service, e.Attempts, e.Err)
}

// Unwrap exposes both ErrServiceUnavailable and the last attempt's error.
func (e *ConnectionError) Unwrap() []error {
	return []error{ErrServiceUnavailable, e.Err}
}
