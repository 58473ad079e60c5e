// Package gamification derives XP, levels, daily streaks, and achievement
// unlocks from progress events.
//
// The engine is pure: state goes in, updated state comes out. Nothing here
// touches storage, so every rule is unit-testable with fixed clocks.
package gamification

import "time"

// XPPerCorrect is the fixed reward for a correct answer.
const XPPerCorrect = 10

// XPPerLevel is the XP span of one level; level is always derived as
// totalXP/XPPerLevel + 1 and never stored.
const XPPerLevel = 100

// State is the per-user gamification record.
type State struct {
	UserID           string     `db:"user_id" json:"user_id"`
	TotalXP          int        `db:"total_xp" json:"total_xp"`
	CurrentStreak    int        `db:"current_streak" json:"current_streak"`
	LongestStreak    int        `db:"longest_streak" json:"longest_streak"`
	LastActivityDate *time.Time `db:"last_activity_date" json:"last_activity_date"`
}

// Level returns the derived level for the accumulated XP.
func (s *State) Level() int {
	if s.TotalXP < 0 {
		return 1
	}
	return s.TotalXP/XPPerLevel + 1
}

// sameDate reports whether a and b fall on the same calendar date.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// touchStreak applies the daily-streak rules for activity at now:
// consecutive day extends the streak, same day is a no-op, anything else
// (a gap, or first-ever activity) resets to 1.
func touchStreak(s *State, now time.Time) {
	switch {
	case s.LastActivityDate == nil:
		s.CurrentStreak = 1
	case sameDate(*s.LastActivityDate, now):
		// At most one increment per calendar day.
	case sameDate(s.LastActivityDate.AddDate(0, 0, 1), now):
		s.CurrentStreak++
	default:
		s.CurrentStreak = 1
	}

	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	today := now
	s.LastActivityDate = &today
}
