package schedule

import (
	"sort"
	"time"

	"github.com/akuzmina/ripeto/internal/progress"
)

// Status is a word's position relative to its review date.
type Status string

const (
	StatusOverdue  Status = "overdue"
	StatusDueToday Status = "due_today"
	StatusDueSoon  Status = "due_soon"
	StatusNotDue   Status = "not_due"
)

// Breakdown is the request-time due-words view. Never persisted.
type Breakdown struct {
	Overdue  []progress.WordProgress `json:"overdue"`
	DueToday []progress.WordProgress `json:"due_today"`
	DueSoon  []progress.WordProgress `json:"due_soon"`
	Total    int                     `json:"total"`
}

// Classifier buckets words by review date against a calendar "now".
type Classifier struct {
	DueSoonDays int
}

// NewClassifier returns a classifier with the given due-soon window;
// values below 1 fall back to the default.
func NewClassifier(dueSoonDays int) *Classifier {
	if dueSoonDays < 1 {
		dueSoonDays = DefaultDueSoonDays
	}
	return &Classifier{DueSoonDays: dueSoonDays}
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Classify buckets a single word. A word that has never been practiced
// is always due today: it has nothing scheduled to wait for.
func (c *Classifier) Classify(p *progress.WordProgress, now time.Time) Status {
	if p == nil || p.LastPracticed == nil {
		return StatusDueToday
	}

	today := startOfDay(now)
	tomorrow := today.AddDate(0, 0, 1)
	soonEnd := tomorrow.AddDate(0, 0, c.DueSoonDays)

	next := p.NextReviewDate
	switch {
	case next.Before(today):
		return StatusOverdue
	case next.Before(tomorrow):
		return StatusDueToday
	case next.Before(soonEnd):
		return StatusDueSoon
	default:
		return StatusNotDue
	}
}

// Due reports whether the word should be reviewed now or earlier today.
func (c *Classifier) Due(p *progress.WordProgress, now time.Time) bool {
	s := c.Classify(p, now)
	return s == StatusOverdue || s == StatusDueToday
}

// SortByPriority orders words weakest and stalest first: ascending
// mastery level, then ascending last-practiced with never-practiced
// words ahead of everything.
func SortByPriority(words []progress.WordProgress) {
	sort.SliceStable(words, func(i, j int) bool {
		a, b := &words[i], &words[j]
		if a.MasteryLevel != b.MasteryLevel {
			return a.MasteryLevel < b.MasteryLevel
		}
		switch {
		case a.LastPracticed == nil && b.LastPracticed == nil:
			return a.WordID < b.WordID
		case a.LastPracticed == nil:
			return true
		case b.LastPracticed == nil:
			return false
		default:
			return a.LastPracticed.Before(*b.LastPracticed)
		}
	})
}

// BuildBreakdown classifies every word and returns the populated view,
// each bucket sorted by priority. Words classified not-due are excluded.
func (c *Classifier) BuildBreakdown(words []progress.WordProgress, now time.Time) *Breakdown {
	b := &Breakdown{}
	for _, w := range words {
		switch c.Classify(&w, now) {
		case StatusOverdue:
			b.Overdue = append(b.Overdue, w)
		case StatusDueToday:
			b.DueToday = append(b.DueToday, w)
		case StatusDueSoon:
			b.DueSoon = append(b.DueSoon, w)
		}
	}
	SortByPriority(b.Overdue)
	SortByPriority(b.DueToday)
	SortByPriority(b.DueSoon)
	b.Total = len(b.Overdue) + len(b.DueToday) + len(b.DueSoon)
	return b
}
