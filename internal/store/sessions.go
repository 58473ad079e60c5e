package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/akuzmina/ripeto/internal/progress"
)

// SessionRepo persists learning sessions locally.
type SessionRepo struct {
	db *sqlx.DB
}

type sessionRow struct {
	ID             string         `db:"id"`
	UserID         string         `db:"user_id"`
	StartedAt      string         `db:"started_at"`
	EndedAt        sql.NullString `db:"ended_at"`
	WordsStudied   int            `db:"words_studied"`
	CorrectAnswers int            `db:"correct_answers"`
	Direction      string         `db:"learning_direction"`
}

func (r sessionRow) toDomain() (progress.Session, error) {
	s := progress.Session{
		ID:             r.ID,
		UserID:         r.UserID,
		WordsStudied:   r.WordsStudied,
		CorrectAnswers: r.CorrectAnswers,
		Direction:      progress.Direction(r.Direction),
	}
	startedAt, err := time.Parse(timeFormat, r.StartedAt)
	if err != nil {
		return s, fmt.Errorf("parse started_at: %w", err)
	}
	s.StartedAt = startedAt
	if r.EndedAt.Valid {
		t, err := time.Parse(timeFormat, r.EndedAt.String)
		if err != nil {
			return s, fmt.Errorf("parse ended_at: %w", err)
		}
		s.EndedAt = &t
	}
	return s, nil
}

// Save upserts a session row; called on start (open row) and again on
// close (counters and ended_at filled in).
func (r *SessionRepo) Save(ctx context.Context, s *progress.Session) error {
	var endedAt sql.NullString
	if s.EndedAt != nil {
		endedAt = sql.NullString{String: s.EndedAt.Format(timeFormat), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (
			id, user_id, started_at, ended_at,
			words_studied, correct_answers, learning_direction
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			ended_at = excluded.ended_at,
			words_studied = excluded.words_studied,
			correct_answers = excluded.correct_answers`,
		s.ID, s.UserID, s.StartedAt.Format(timeFormat), endedAt,
		s.WordsStudied, s.CorrectAnswers, string(s.Direction),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get returns a session by id, or nil if unknown.
func (r *SessionRepo) Get(ctx context.Context, id string) (*progress.Session, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM sessions WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	s, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListRecent returns up to limit sessions for the user, newest first.
func (r *SessionRepo) ListRecent(ctx context.Context, userID string, limit int) ([]progress.Session, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []sessionRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM sessions WHERE user_id = ? ORDER BY started_at DESC LIMIT ?", userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make([]progress.Session, 0, len(rows))
	for _, row := range rows {
		s, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// CountFinished returns how many closed sessions the user has.
func (r *SessionRepo) CountFinished(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM sessions WHERE user_id = ? AND ended_at IS NOT NULL", userID)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
