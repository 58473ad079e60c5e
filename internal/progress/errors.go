package progress

import (
	"errors"
	"fmt"
)

// ErrRemoteUnavailable signals that the remote store cannot be reached.
// It is not a failure for callers: it is the trigger for queuing the
// event locally and replaying it later.
var ErrRemoteUnavailable = errors.New("remote store unavailable")

// ValidationError rejects malformed input before any state mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransientError wraps a network or timeout failure that is worth
// retrying with backoff before falling back to the offline queue.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
