package gamification

import "time"

// Engine applies gamification rules. It is stateless: the caller owns the
// per-user State and the unlocked set and passes both in explicitly.
type Engine struct {
	catalog []Definition
}

// NewEngine returns an engine over the standard achievement catalog.
func NewEngine() *Engine {
	return &Engine{catalog: Catalog}
}

// OnAnswer applies one answer event: streak upkeep, XP for a correct
// answer, and achievement evaluation against the updated facts. It
// returns the updated state and any newly unlocked achievements, whose
// rewards are already folded into TotalXP.
func (e *Engine) OnAnswer(st State, correct bool, facts Facts, already Unlocked, now time.Time) (State, []Unlock) {
	touchStreak(&st, now)
	if correct {
		st.TotalXP += XPPerCorrect
	}

	facts.CurrentStreak = st.CurrentStreak
	unlocks := e.evaluate(facts, already, now)
	for _, u := range unlocks {
		st.TotalXP += u.RewardXP
	}
	return st, unlocks
}

// OnSessionEnd re-evaluates achievements after a session closes (the
// session-count predicates can only fire here). No XP or streak change
// beyond unlock rewards.
func (e *Engine) OnSessionEnd(st State, facts Facts, already Unlocked, now time.Time) (State, []Unlock) {
	facts.CurrentStreak = st.CurrentStreak
	unlocks := e.evaluate(facts, already, now)
	for _, u := range unlocks {
		st.TotalXP += u.RewardXP
	}
	return st, unlocks
}

// evaluate returns unlocks for every not-yet-unlocked definition whose
// predicate holds. Already-unlocked achievements are skipped, which makes
// unlocking idempotent.
func (e *Engine) evaluate(facts Facts, already Unlocked, now time.Time) []Unlock {
	var unlocks []Unlock
	for _, def := range e.catalog {
		if already[def.Type] {
			continue
		}
		if def.Unlocks(facts) {
			unlocks = append(unlocks, Unlock{
				Type:       def.Type,
				Title:      def.Title,
				RewardXP:   def.RewardXP,
				UnlockedAt: now,
			})
		}
	}
	return unlocks
}
