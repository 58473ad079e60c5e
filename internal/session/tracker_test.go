package session

import (
	"testing"
	"time"

	"github.com/akuzmina/ripeto/internal/progress"
)

var t0 = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

func TestStartRecordEnd(t *testing.T) {
	tr := NewTracker()

	opened, closed, err := tr.Start("u1", progress.DirectionRuIt, t0)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if closed != nil {
		t.Fatal("expected no implicitly closed session")
	}
	if opened.ID == "" || opened.Direction != progress.DirectionRuIt {
		t.Fatalf("unexpected opened session: %+v", opened)
	}

	tr.RecordAnswer(true)
	tr.RecordAnswer(true)
	snap := tr.RecordAnswer(false)
	if snap.WordsStudied != 3 || snap.CorrectAnswers != 2 {
		t.Errorf("snapshot = {studied: %d, correct: %d}, want {3, 2}", snap.WordsStudied, snap.CorrectAnswers)
	}

	ended := tr.End(t0.Add(10 * time.Minute))
	if ended == nil || ended.EndedAt == nil {
		t.Fatal("expected closed session")
	}
	if ended.WordsStudied != 3 || ended.CorrectAnswers != 2 {
		t.Errorf("ended = {studied: %d, correct: %d}, want {3, 2}", ended.WordsStudied, ended.CorrectAnswers)
	}
}

func TestEndIsIdempotent(t *testing.T) {
	tr := NewTracker()
	tr.Start("u1", progress.DirectionItRu, t0)

	if tr.End(t0.Add(time.Minute)) == nil {
		t.Fatal("first end should close the session")
	}
	if tr.End(t0.Add(2*time.Minute)) != nil {
		t.Fatal("second end should be a no-op")
	}
}

func TestStartAutoClosesOpenSession(t *testing.T) {
	tr := NewTracker()
	first, _, _ := tr.Start("u1", progress.DirectionRuIt, t0)
	tr.RecordAnswer(true)

	second, closed, err := tr.Start("u1", progress.DirectionItRu, t0.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if closed == nil || closed.ID != first.ID {
		t.Fatal("expected the first session to be implicitly closed")
	}
	if closed.EndedAt == nil || closed.EndedAt.Before(closed.StartedAt) {
		t.Errorf("closed session endedAt = %v, startedAt = %v", closed.EndedAt, closed.StartedAt)
	}
	if closed.WordsStudied != 1 {
		t.Errorf("closed wordsStudied = %d, want 1", closed.WordsStudied)
	}
	if second.ID == first.ID {
		t.Error("new session should have a fresh id")
	}
}

func TestEndedAtNeverBeforeStartedAt(t *testing.T) {
	tr := NewTracker()
	tr.Start("u1", progress.DirectionRuIt, t0)

	// Clock skew: end called with a timestamp before the start.
	ended := tr.End(t0.Add(-time.Hour))
	if ended.EndedAt.Before(ended.StartedAt) {
		t.Errorf("endedAt %v before startedAt %v", ended.EndedAt, ended.StartedAt)
	}
}

func TestInvalidDirection(t *testing.T) {
	tr := NewTracker()
	_, _, err := tr.Start("u1", progress.Direction("en-fr"), t0)
	if err == nil {
		t.Fatal("expected validation error for unknown direction")
	}
}

func TestRecordAnswerWithoutSession(t *testing.T) {
	tr := NewTracker()
	if snap := tr.RecordAnswer(true); snap != nil {
		t.Fatal("expected nil snapshot with no open session")
	}
}
