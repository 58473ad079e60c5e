package schedule

import (
	"testing"
	"time"
)

func TestIntervalDays(t *testing.T) {
	tests := []struct {
		level int
		want  int
	}{
		{-1, 0},
		{0, 0},
		{1, 1},
		{2, 3},
		{3, 7},
		{4, 14},
		{5, 30},
		{6, 90},
		{9, 90},
	}

	for _, tt := range tests {
		got := DefaultIntervals.Days(tt.level)
		if got != tt.want {
			t.Errorf("Days(%d) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestNextReview(t *testing.T) {
	last := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	got := DefaultIntervals.NextReview(1, last)
	want := last.AddDate(0, 0, 1)
	if !got.Equal(want) {
		t.Errorf("NextReview(1) = %v, want %v", got, want)
	}

	got = DefaultIntervals.NextReview(5, last)
	want = last.AddDate(0, 0, 30)
	if !got.Equal(want) {
		t.Errorf("NextReview(5) = %v, want %v", got, want)
	}

	// Level 0 is due immediately.
	if !DefaultIntervals.NextReview(0, last).Equal(last) {
		t.Error("NextReview(0) should equal lastPracticed")
	}
}

// Higher levels never review sooner than lower ones.
func TestNextReviewMonotonicInLevel(t *testing.T) {
	last := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	prev := DefaultIntervals.NextReview(0, last)
	for level := 1; level <= 8; level++ {
		next := DefaultIntervals.NextReview(level, last)
		if next.Before(prev) {
			t.Fatalf("NextReview(%d) = %v is before NextReview(%d) = %v", level, next, level-1, prev)
		}
		prev = next
	}
}
