// Package session tracks the single bounded learning session a user has
// open at a time.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/akuzmina/ripeto/internal/progress"
)

// Tracker is the Closed → Open → Closed state machine for sessions.
// Sessions never overlap: starting while one is open closes it first.
type Tracker struct {
	mu      sync.Mutex
	current *progress.Session
}

// NewTracker returns a tracker with no open session.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Start opens a new session in the given direction. If a session is
// already open it is implicitly closed at now and returned as closed.
func (t *Tracker) Start(userID string, dir progress.Direction, now time.Time) (opened, closed *progress.Session, err error) {
	if !dir.Valid() {
		return nil, nil, &progress.ValidationError{Field: "direction", Reason: "must be ru-it or it-ru"}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	closed = t.closeLocked(now)

	t.current = &progress.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartedAt: now,
		Direction: dir,
	}
	return t.snapshotLocked(), closed, nil
}

// RecordAnswer counts an answer against the open session. Returns the
// updated snapshot, or nil when no session is open (answers outside a
// session are valid and simply untracked).
func (t *Tracker) RecordAnswer(correct bool) *progress.Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == nil {
		return nil
	}
	t.current.WordsStudied++
	if correct {
		t.current.CorrectAnswers++
	}
	return t.snapshotLocked()
}

// End closes the open session at now. Idempotent: with no open session
// it returns nil and does nothing.
func (t *Tracker) End(now time.Time) *progress.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeLocked(now)
}

// Current returns a snapshot of the open session, or nil.
func (t *Tracker) Current() *progress.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) closeLocked(now time.Time) *progress.Session {
	if t.current == nil {
		return nil
	}
	endedAt := now
	if endedAt.Before(t.current.StartedAt) {
		endedAt = t.current.StartedAt
	}
	t.current.EndedAt = &endedAt
	closed := *t.current
	t.current = nil
	return &closed
}

func (t *Tracker) snapshotLocked() *progress.Session {
	if t.current == nil {
		return nil
	}
	snap := *t.current
	return &snap
}
