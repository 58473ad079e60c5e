package gamification

import "time"

// AchievementType identifies an achievement definition.
type AchievementType string

const (
	AchFirstCorrect  AchievementType = "first_correct"
	AchCorrect10     AchievementType = "correct_10"
	AchCorrect100    AchievementType = "correct_100"
	AchFirstMastered AchievementType = "first_mastered"
	AchMastered10    AchievementType = "mastered_10"
	AchStreak7       AchievementType = "streak_7"
	AchStreak30      AchievementType = "streak_30"
	AchFirstSession  AchievementType = "first_session"
)

// Facts are the cumulative counters achievement predicates see. They
// include the event currently being applied.
type Facts struct {
	TotalCorrect     int
	MasteredWords    int
	CurrentStreak    int
	FinishedSessions int
}

// Definition is one achievement: a predicate over cumulative facts and a
// one-time XP reward granted on unlock.
type Definition struct {
	Type     AchievementType
	Title    string
	RewardXP int
	Unlocks  func(f Facts) bool
}

// Unlock records that an achievement was earned. One row per
// (user, achievement); re-evaluating an unlocked achievement is a no-op.
type Unlock struct {
	Type       AchievementType `db:"achievement_type" json:"achievement_type"`
	Title      string          `db:"title" json:"title"`
	RewardXP   int             `db:"reward_xp" json:"reward_xp"`
	UnlockedAt time.Time       `db:"unlocked_at" json:"unlocked_at"`
}

// Unlocked is the set of achievement types a user has already earned.
type Unlocked map[AchievementType]bool

// Catalog is the full achievement list, in display order.
var Catalog = []Definition{
	{AchFirstCorrect, "First Steps", 10, func(f Facts) bool { return f.TotalCorrect >= 1 }},
	{AchCorrect10, "Getting Warmer", 25, func(f Facts) bool { return f.TotalCorrect >= 10 }},
	{AchCorrect100, "Centurion", 100, func(f Facts) bool { return f.TotalCorrect >= 100 }},
	{AchFirstMastered, "Word Master", 50, func(f Facts) bool { return f.MasteredWords >= 1 }},
	{AchMastered10, "Lexicon Builder", 150, func(f Facts) bool { return f.MasteredWords >= 10 }},
	{AchStreak7, "One Week Strong", 70, func(f Facts) bool { return f.CurrentStreak >= 7 }},
	{AchStreak30, "Habit Formed", 300, func(f Facts) bool { return f.CurrentStreak >= 30 }},
	{AchFirstSession, "Warm-Up Done", 20, func(f Facts) bool { return f.FinishedSessions >= 1 }},
}
