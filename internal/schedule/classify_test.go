package schedule

import (
	"testing"
	"time"

	"github.com/akuzmina/ripeto/internal/progress"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func wordAt(id string, level int, lastPracticed time.Time) progress.WordProgress {
	lp := lastPracticed
	return progress.WordProgress{
		UserID:         "u1",
		WordID:         id,
		MasteryLevel:   level,
		LastPracticed:  &lp,
		NextReviewDate: DefaultIntervals.NextReview(level, lastPracticed),
	}
}

func TestClassify(t *testing.T) {
	c := NewClassifier(3)

	tests := []struct {
		name string
		word progress.WordProgress
		want Status
	}{
		{"never practiced", progress.WordProgress{WordID: "w"}, StatusDueToday},
		{"level 1 practiced two days ago", wordAt("w", 1, now.AddDate(0, 0, -2)), StatusOverdue},
		{"level 1 practiced yesterday", wordAt("w", 1, now.AddDate(0, 0, -1)), StatusDueToday},
		{"level 2 practiced yesterday", wordAt("w", 2, now.AddDate(0, 0, -1)), StatusDueSoon},
		{"level 5 practiced yesterday", wordAt("w", 5, now.AddDate(0, 0, -1)), StatusNotDue},
		{"level 0 just practiced", wordAt("w", 0, now), StatusDueToday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(&tt.word, now)
			if got != tt.want {
				t.Errorf("Classify = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyNilRecordAlwaysDue(t *testing.T) {
	c := NewClassifier(0)
	if got := c.Classify(nil, now); got != StatusDueToday {
		t.Errorf("Classify(nil) = %q, want %q", got, StatusDueToday)
	}
}

func TestSortByPriority(t *testing.T) {
	old := now.AddDate(0, 0, -10)
	older := now.AddDate(0, 0, -20)

	words := []progress.WordProgress{
		wordAt("c", 3, old),
		wordAt("a", 1, old),
		{WordID: "never", MasteryLevel: 1},
		wordAt("b", 1, older),
	}

	SortByPriority(words)

	wantOrder := []string{"never", "b", "a", "c"}
	for i, id := range wantOrder {
		if words[i].WordID != id {
			t.Fatalf("position %d = %q, want %q (order %v)", i, words[i].WordID, id, wantOrder)
		}
	}
}

func TestBuildBreakdown(t *testing.T) {
	c := NewClassifier(3)

	words := []progress.WordProgress{
		wordAt("overdue", 1, now.AddDate(0, 0, -5)),
		wordAt("today", 1, now.AddDate(0, 0, -1)),
		wordAt("soon", 2, now.AddDate(0, 0, -1)),
		wordAt("later", 5, now),
	}

	b := c.BuildBreakdown(words, now)

	if len(b.Overdue) != 1 || b.Overdue[0].WordID != "overdue" {
		t.Errorf("overdue bucket = %v", b.Overdue)
	}
	if len(b.DueToday) != 1 || b.DueToday[0].WordID != "today" {
		t.Errorf("due-today bucket = %v", b.DueToday)
	}
	if len(b.DueSoon) != 1 || b.DueSoon[0].WordID != "soon" {
		t.Errorf("due-soon bucket = %v", b.DueSoon)
	}
	if b.Total != 3 {
		t.Errorf("total = %d, want 3", b.Total)
	}

	// A not-due word never appears in any bucket.
	for _, bucket := range [][]progress.WordProgress{b.Overdue, b.DueToday, b.DueSoon} {
		for _, w := range bucket {
			if w.WordID == "later" {
				t.Fatal("not-due word leaked into breakdown")
			}
		}
	}
}
