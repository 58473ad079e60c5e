package syncer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/akuzmina/ripeto/internal/gamification"
	"github.com/akuzmina/ripeto/internal/progress"
	"github.com/akuzmina/ripeto/internal/store"
)

type replayRemote struct {
	failAtCall int // 1-based call index to fail at, 0 disables
	calls      int

	answers  []progress.Event
	sessions map[string]progress.Session
	states   []gamification.State
}

func newReplayRemote() *replayRemote {
	return &replayRemote{sessions: make(map[string]progress.Session)}
}

func (r *replayRemote) step() error {
	r.calls++
	if r.failAtCall != 0 && r.calls == r.failAtCall {
		return errors.New("connection reset")
	}
	return nil
}

func (r *replayRemote) RecordAnswer(_ context.Context, ev progress.Event) (*progress.WordProgress, error) {
	if err := r.step(); err != nil {
		return nil, err
	}
	r.answers = append(r.answers, ev)
	return &progress.WordProgress{UserID: ev.UserID, WordID: ev.WordID}, nil
}

func (r *replayRemote) SaveSession(_ context.Context, s *progress.Session) error {
	if err := r.step(); err != nil {
		return err
	}
	r.sessions[s.ID] = *s
	return nil
}

func (r *replayRemote) SaveGamification(_ context.Context, st *gamification.State) error {
	r.states = append(r.states, *st)
	return nil
}

func (r *replayRemote) SaveUnlocks(context.Context, string, []gamification.Unlock) error {
	return nil
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func answerEvent(wordID string, correct bool, at time.Time) progress.Event {
	return progress.Event{
		Kind:       progress.EventAnswer,
		UserID:     "u1",
		WordID:     wordID,
		Correct:    correct,
		OccurredAt: at,
	}
}

func TestFlushEmptyQueue(t *testing.T) {
	st := openTestStore(t)
	s := New(st, newReplayRemote(), "u1", nil)

	n, err := s.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if n != 0 {
		t.Errorf("Flush = %d, want 0", n)
	}
}

func TestFlushReplaysInOrder(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	words := []string{"w1", "w2", "w1"}
	for i, w := range words {
		if _, err := st.Queue().Append(ctx, answerEvent(w, true, at.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	remote := newReplayRemote()
	s := New(st, remote, "u1", nil)

	n, err := s.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if n != 3 {
		t.Errorf("Flush = %d, want 3", n)
	}
	if len(remote.answers) != 3 {
		t.Fatalf("remote got %d answers, want 3", len(remote.answers))
	}
	for i, w := range words {
		if remote.answers[i].WordID != w {
			t.Errorf("answer %d = %s, want %s", i, remote.answers[i].WordID, w)
		}
	}
	if len(remote.states) != 1 {
		t.Errorf("gamification snapshots = %d, want 1 after drain", len(remote.states))
	}

	left, err := st.Queue().PendingCount(ctx)
	if err != nil {
		t.Fatalf("PendingCount: %v", err)
	}
	if left != 0 {
		t.Errorf("PendingCount after flush = %d, want 0", left)
	}
}

func TestFlushStopsOnFailureAndResumes(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for _, w := range []string{"w1", "w2", "w3"} {
		if _, err := st.Queue().Append(ctx, answerEvent(w, true, at)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	remote := newReplayRemote()
	remote.failAtCall = 2
	s := New(st, remote, "u1", nil)

	n, err := s.Flush(ctx)
	if err == nil {
		t.Fatal("Flush should fail on the second event")
	}
	if n != 1 {
		t.Errorf("applied = %d, want 1 before the failure", n)
	}

	left, _ := st.Queue().PendingCount(ctx)
	if left != 2 {
		t.Errorf("PendingCount = %d, want 2 left after partial flush", left)
	}

	// Next flush resumes at w2; w1 is never replayed twice.
	n, err = s.Flush(ctx)
	if err != nil {
		t.Fatalf("resumed Flush: %v", err)
	}
	if n != 2 {
		t.Errorf("resumed applied = %d, want 2", n)
	}
	if len(remote.answers) != 3 {
		t.Fatalf("remote got %d answers total, want 3", len(remote.answers))
	}
	for i, w := range []string{"w1", "w2", "w3"} {
		if remote.answers[i].WordID != w {
			t.Errorf("answer %d = %s, want %s", i, remote.answers[i].WordID, w)
		}
	}
}

func TestFlushPushesQueuedSession(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	ended := started.Add(10 * time.Minute)

	sess := &progress.Session{
		ID:             "s1",
		UserID:         "u1",
		StartedAt:      started,
		EndedAt:        &ended,
		WordsStudied:   5,
		CorrectAnswers: 4,
		Direction:      progress.DirectionRuIt,
	}
	if err := st.Sessions().Save(ctx, sess); err != nil {
		t.Fatalf("Save session: %v", err)
	}
	_, err := st.Queue().Append(ctx, progress.Event{
		Kind:       progress.EventSessionEnd,
		UserID:     "u1",
		SessionID:  "s1",
		Direction:  progress.DirectionRuIt,
		OccurredAt: ended,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	remote := newReplayRemote()
	s := New(st, remote, "u1", nil)
	if _, err := s.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, ok := remote.sessions["s1"]
	if !ok {
		t.Fatal("session s1 not pushed to remote")
	}
	if got.WordsStudied != 5 || got.CorrectAnswers != 4 {
		t.Errorf("pushed counters = {%d, %d}, want {5, 4}", got.WordsStudied, got.CorrectAnswers)
	}
}

func TestFlushSkipsOrphanedSessionEvent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	_, err := st.Queue().Append(ctx, progress.Event{
		Kind:       progress.EventSessionEnd,
		UserID:     "u1",
		SessionID:  "gone",
		OccurredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}

	s := New(st, newReplayRemote(), "u1", nil)
	n, err := s.Flush(ctx)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if n != 1 {
		t.Errorf("applied = %d, want 1 (skipped event still advances)", n)
	}
	left, _ := st.Queue().PendingCount(ctx)
	if left != 0 {
		t.Errorf("PendingCount = %d, want 0", left)
	}
}

func TestFlushWithoutRemote(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if _, err := st.Queue().Append(ctx, answerEvent("w1", true, time.Now())); err != nil {
		t.Fatalf("Append: %v", err)
	}

	s := New(st, nil, "u1", nil)
	if _, err := s.Flush(ctx); !errors.Is(err, progress.ErrRemoteUnavailable) {
		t.Errorf("Flush = %v, want ErrRemoteUnavailable", err)
	}
	left, _ := st.Queue().PendingCount(ctx)
	if left != 1 {
		t.Errorf("PendingCount = %d, want 1 (queue untouched)", left)
	}
}
