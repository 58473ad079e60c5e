package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/akuzmina/ripeto/internal/gamification"
)

// GamificationRepo persists per-user XP/streak state and achievement
// unlocks locally.
type GamificationRepo struct {
	db *sqlx.DB
}

type gamificationRow struct {
	UserID           string         `db:"user_id"`
	TotalXP          int            `db:"total_xp"`
	CurrentStreak    int            `db:"current_streak"`
	LongestStreak    int            `db:"longest_streak"`
	LastActivityDate sql.NullString `db:"last_activity_date"`
}

// State returns the user's gamification state, lazily zero-initialized
// when no row exists yet.
func (r *GamificationRepo) State(ctx context.Context, userID string) (gamification.State, error) {
	var row gamificationRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM gamification WHERE user_id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return gamification.State{UserID: userID}, nil
	}
	if err != nil {
		return gamification.State{}, fmt.Errorf("get gamification state: %w", err)
	}

	st := gamification.State{
		UserID:        row.UserID,
		TotalXP:       row.TotalXP,
		CurrentStreak: row.CurrentStreak,
		LongestStreak: row.LongestStreak,
	}
	if row.LastActivityDate.Valid {
		t, err := time.Parse(timeFormat, row.LastActivityDate.String)
		if err != nil {
			return gamification.State{}, fmt.Errorf("parse last_activity_date: %w", err)
		}
		st.LastActivityDate = &t
	}
	return st, nil
}

// SaveState upserts the user's gamification row.
func (r *GamificationRepo) SaveState(ctx context.Context, st *gamification.State) error {
	var lastActivity sql.NullString
	if st.LastActivityDate != nil {
		lastActivity = sql.NullString{String: st.LastActivityDate.Format(timeFormat), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gamification (
			user_id, total_xp, current_streak, longest_streak, last_activity_date
		) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			total_xp = excluded.total_xp,
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_activity_date = excluded.last_activity_date`,
		st.UserID, st.TotalXP, st.CurrentStreak, st.LongestStreak, lastActivity,
	)
	if err != nil {
		return fmt.Errorf("save gamification state: %w", err)
	}
	return nil
}

// Unlocked returns the set of achievement types the user has earned.
func (r *GamificationRepo) Unlocked(ctx context.Context, userID string) (gamification.Unlocked, error) {
	var types []string
	err := r.db.SelectContext(ctx, &types,
		"SELECT achievement_type FROM achievements WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}

	set := make(gamification.Unlocked, len(types))
	for _, t := range types {
		set[gamification.AchievementType(t)] = true
	}
	return set, nil
}

// Unlocks returns the full unlock rows for display, oldest first.
func (r *GamificationRepo) Unlocks(ctx context.Context, userID string) ([]gamification.Unlock, error) {
	type unlockRow struct {
		Type       string `db:"achievement_type"`
		Title      string `db:"title"`
		RewardXP   int    `db:"reward_xp"`
		UnlockedAt string `db:"unlocked_at"`
	}

	var rows []unlockRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT achievement_type, title, reward_xp, unlocked_at FROM achievements WHERE user_id = ? ORDER BY unlocked_at", userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocks: %w", err)
	}

	out := make([]gamification.Unlock, 0, len(rows))
	for _, row := range rows {
		t, err := time.Parse(timeFormat, row.UnlockedAt)
		if err != nil {
			return nil, fmt.Errorf("parse unlocked_at: %w", err)
		}
		out = append(out, gamification.Unlock{
			Type:       gamification.AchievementType(row.Type),
			Title:      row.Title,
			RewardXP:   row.RewardXP,
			UnlockedAt: t,
		})
	}
	return out, nil
}

// AddUnlocks records new achievement unlocks. INSERT OR IGNORE keeps the
// operation idempotent: re-recording an unlock is a no-op.
func (r *GamificationRepo) AddUnlocks(ctx context.Context, userID string, unlocks []gamification.Unlock) error {
	for _, u := range unlocks {
		_, err := r.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO achievements (
				user_id, achievement_type, title, reward_xp, unlocked_at
			) VALUES (?, ?, ?, ?, ?)`,
			userID, string(u.Type), u.Title, u.RewardXP, u.UnlockedAt.Format(timeFormat),
		)
		if err != nil {
			return fmt.Errorf("record unlock %s: %w", u.Type, err)
		}
	}
	return nil
}
