// Package remote is the persistence boundary: CRUD against the managed
// Postgres store holding user_progress, learning_sessions, and the
// gamification tables.
//
// Counter updates are expressed as atomic increments at the storage
// layer, never client-side read-modify-write, so simultaneous answers
// from two devices converge instead of losing updates. Schema and
// row-level security are managed outside the engine.
package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/akuzmina/ripeto/internal/gamification"
	"github.com/akuzmina/ripeto/internal/mastery"
	"github.com/akuzmina/ripeto/internal/progress"
	"github.com/akuzmina/ripeto/internal/schedule"
)

// Store talks to the remote Postgres database.
type Store struct {
	db        *sqlx.DB
	intervals schedule.Intervals
	logger    *zap.Logger
}

// Open connects to the remote store at dsn.
func Open(dsn string, intervals schedule.Intervals, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if intervals == nil {
		intervals = schedule.DefaultIntervals
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open remote store: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db, intervals: intervals, logger: logger}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping probes connectivity. Used by the syncer before a replay attempt.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

// RecordAnswer applies one answer event. The counter increment is atomic
// at the database (INSERT ... ON CONFLICT DO UPDATE adding 1 to the
// stored value), so it composes correctly with concurrent writers; the
// derived mastery level and review date are then recomputed from the
// post-increment counters and written back in the same transaction.
func (s *Store) RecordAnswer(ctx context.Context, ev progress.Event) (*progress.WordProgress, error) {
	if ev.Kind != progress.EventAnswer {
		return nil, &progress.ValidationError{Field: "kind", Reason: "expected answer event"}
	}

	correctDelta, wrongDelta := 0, 0
	if ev.Correct {
		correctDelta = 1
	} else {
		wrongDelta = 1
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, classify("begin", err)
	}
	defer tx.Rollback()

	var correct, wrong int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO user_progress (
			user_id, word_id, correct_count, wrong_count,
			mastery_level, last_practiced, next_review_date
		) VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id, word_id) DO UPDATE SET
			correct_count = user_progress.correct_count + $3,
			wrong_count = user_progress.wrong_count + $4,
			last_practiced = $6
		RETURNING correct_count, wrong_count`,
		ev.UserID, ev.WordID, correctDelta, wrongDelta,
		mastery.Level(correctDelta, wrongDelta), ev.OccurredAt,
	).Scan(&correct, &wrong)
	if err != nil {
		return nil, classify("increment user_progress", err)
	}

	level := mastery.Level(correct, wrong)
	nextReview := s.intervals.NextReview(level, ev.OccurredAt)

	_, err = tx.ExecContext(ctx, `
		UPDATE user_progress SET mastery_level = $3, next_review_date = $4
		WHERE user_id = $1 AND word_id = $2`,
		ev.UserID, ev.WordID, level, nextReview,
	)
	if err != nil {
		return nil, classify("update derived fields", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, classify("commit", err)
	}

	practiced := ev.OccurredAt
	return &progress.WordProgress{
		UserID:         ev.UserID,
		WordID:         ev.WordID,
		CorrectCount:   correct,
		WrongCount:     wrong,
		MasteryLevel:   level,
		LastPracticed:  &practiced,
		NextReviewDate: nextReview,
	}, nil
}

// SaveSession writes a session row: insert on start, update-in-place on
// close (insert-then-update semantics over a stable id).
func (s *Store) SaveSession(ctx context.Context, sess *progress.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learning_sessions (
			id, user_id, started_at, ended_at,
			words_studied, correct_answers, learning_direction
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			ended_at = EXCLUDED.ended_at,
			words_studied = EXCLUDED.words_studied,
			correct_answers = EXCLUDED.correct_answers`,
		sess.ID, sess.UserID, sess.StartedAt, sess.EndedAt,
		sess.WordsStudied, sess.CorrectAnswers, string(sess.Direction),
	)
	if err != nil {
		return classify("save learning_session", err)
	}
	return nil
}

// SaveGamification mirrors the locally computed gamification state. The
// local engine is authoritative for XP and streak derivation; the remote
// row is a last-writer-wins snapshot.
func (s *Store) SaveGamification(ctx context.Context, st *gamification.State) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_gamification (
			user_id, total_xp, current_streak, longest_streak, last_activity_date
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			total_xp = EXCLUDED.total_xp,
			current_streak = EXCLUDED.current_streak,
			longest_streak = GREATEST(user_gamification.longest_streak, EXCLUDED.longest_streak),
			last_activity_date = EXCLUDED.last_activity_date`,
		st.UserID, st.TotalXP, st.CurrentStreak, st.LongestStreak, st.LastActivityDate,
	)
	if err != nil {
		return classify("save gamification", err)
	}
	return nil
}

// SaveUnlocks records achievement unlocks. ON CONFLICT DO NOTHING keeps
// unlocks idempotent across devices and replays.
func (s *Store) SaveUnlocks(ctx context.Context, userID string, unlocks []gamification.Unlock) error {
	for _, u := range unlocks {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO user_achievements (
				user_id, achievement_type, reward_xp, unlocked_at
			) VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, achievement_type) DO NOTHING`,
			userID, string(u.Type), u.RewardXP, u.UnlockedAt,
		)
		if err != nil {
			return classify("save unlock", err)
		}
	}
	return nil
}
