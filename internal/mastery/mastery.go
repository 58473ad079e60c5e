// Package mastery computes a word's mastery level from its answer history.
//
// The level is always a pure function of (correctCount, wrongCount); it is
// recomputed on every answer and never set independently.
package mastery

// MaxLevel is the highest mastery level a word can reach. Levels 6+ are
// reserved for a future long-retention tier.
const MaxLevel = 5

// threshold is one row of the level table: a level is reached when the
// total attempt count and the running accuracy both meet the minimum.
type threshold struct {
	level       int
	minAttempts int
	minAccuracy float64
}

// thresholds are evaluated top-down; the first satisfied row wins.
var thresholds = []threshold{
	{level: 5, minAttempts: 5, minAccuracy: 0.90},
	{level: 4, minAttempts: 4, minAccuracy: 0.80},
	{level: 3, minAttempts: 3, minAccuracy: 0.70},
	{level: 2, minAttempts: 2, minAccuracy: 0.60},
}

// Level returns the mastery level for the given counters, clamped to
// [0, MaxLevel]. Negative inputs are clamped to zero.
func Level(correct, wrong int) int {
	if correct < 0 {
		correct = 0
	}
	if wrong < 0 {
		wrong = 0
	}

	attempts := correct + wrong
	if attempts == 0 {
		return 0
	}

	acc := float64(correct) / float64(attempts)
	for _, t := range thresholds {
		if attempts >= t.minAttempts && acc >= t.minAccuracy {
			return t.level
		}
	}
	return 1
}

// Accuracy returns correct/(correct+wrong), or 0 with no attempts.
func Accuracy(correct, wrong int) float64 {
	attempts := correct + wrong
	if attempts <= 0 {
		return 0
	}
	return float64(correct) / float64(attempts)
}

// IsMastered reports whether the counters correspond to the top level.
func IsMastered(correct, wrong int) bool {
	return Level(correct, wrong) == MaxLevel
}
