package remote

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"

	"github.com/akuzmina/ripeto/internal/progress"
)

// classify maps a raw driver error onto the engine's failure taxonomy.
// Connection-level failures become ErrRemoteUnavailable so callers fall
// back to the offline queue; timeouts become TransientError and get
// retried with backoff first; anything the server actually rejected
// (constraint violations, bad SQL) surfaces as a plain error.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &progress.TransientError{Op: op, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &progress.TransientError{Op: op, Err: err}
		}
		return fmt.Errorf("%s: %w: %v", op, progress.ErrRemoteUnavailable, err)
	}

	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%s: %w: %v", op, progress.ErrRemoteUnavailable, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 08 is connection_exception; class 57 covers server
		// shutdown and admin-initiated termination.
		switch pqErr.Code.Class() {
		case "08", "57":
			return fmt.Errorf("%s: %w: %v", op, progress.ErrRemoteUnavailable, err)
		case "40":
			// serialization_failure and deadlock_detected resolve on retry
			return &progress.TransientError{Op: op, Err: err}
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
