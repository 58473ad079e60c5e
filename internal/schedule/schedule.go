// Package schedule computes review dates and due-word classification.
//
// Intervals grow with demonstrated mastery (Leitner-style): a stronger
// word waits longer before it surfaces again.
package schedule

import (
	"time"
)

// Intervals maps a mastery level to the number of days between the last
// practice and the next review. Levels beyond the table use ReservedDays.
type Intervals []int

// DefaultIntervals is the shipping interval table, indexed by level.
// Level 0 is due immediately.
var DefaultIntervals = Intervals{0, 1, 3, 7, 14, 30}

// ReservedDays is the interval for levels beyond the table (reserved for
// a future long-retention tier).
const ReservedDays = 90

// DefaultDueSoonDays is the forward window for the due-soon bucket.
const DefaultDueSoonDays = 3

// Days returns the review interval in days for the given level.
// Negative levels are treated as 0.
func (iv Intervals) Days(level int) int {
	if level < 0 {
		level = 0
	}
	if level >= len(iv) {
		return ReservedDays
	}
	return iv[level]
}

// NextReview returns the next review timestamp for a word at the given
// mastery level last practiced at lastPracticed.
func (iv Intervals) NextReview(level int, lastPracticed time.Time) time.Time {
	return lastPracticed.AddDate(0, 0, iv.Days(level))
}
