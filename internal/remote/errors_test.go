package remote

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/lib/pq"

	"github.com/akuzmina/ripeto/internal/progress"
)

type fakeNetError struct {
	timeout bool
}

func (e *fakeNetError) Error() string   { return "fake net error" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return true }

var _ net.Error = (*fakeNetError)(nil)

func TestClassifyNil(t *testing.T) {
	if got := classify("op", nil); got != nil {
		t.Errorf("classify(nil) = %v, want nil", got)
	}
}

func TestClassifyUnavailable(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"connection refused", &net.OpError{Op: "dial", Err: errors.New("connection refused")}},
		{"bad conn", driver.ErrBadConn},
		{"wrapped bad conn", fmt.Errorf("exec: %w", driver.ErrBadConn)},
		{"pq connection exception", &pq.Error{Code: "08006"}},
		{"pq shutdown", &pq.Error{Code: "57P01"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify("save", tc.err)
			if !errors.Is(got, progress.ErrRemoteUnavailable) {
				t.Errorf("classify(%v) = %v, want ErrRemoteUnavailable", tc.err, got)
			}
			if progress.IsTransient(got) {
				t.Errorf("classify(%v) should not be transient", tc.err)
			}
		})
	}
}

func TestClassifyTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"deadline", context.DeadlineExceeded},
		{"net timeout", &fakeNetError{timeout: true}},
		{"serialization failure", &pq.Error{Code: "40001"}},
		{"deadlock", &pq.Error{Code: "40P01"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify("save", tc.err)
			if !progress.IsTransient(got) {
				t.Errorf("classify(%v) = %v, want TransientError", tc.err, got)
			}
		})
	}
}

func TestClassifyServerRejection(t *testing.T) {
	err := &pq.Error{Code: "23505"} // unique_violation
	got := classify("save", err)
	if got == nil {
		t.Fatal("classify(unique_violation) = nil, want error")
	}
	if errors.Is(got, progress.ErrRemoteUnavailable) || progress.IsTransient(got) {
		t.Errorf("classify(unique_violation) = %v, want plain error", got)
	}
	if !errors.As(got, new(*pq.Error)) {
		t.Errorf("classify should preserve the pq error in the chain, got %v", got)
	}
}
