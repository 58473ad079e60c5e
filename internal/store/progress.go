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

// ProgressRepo is the local cache of word-progress rows. It mirrors the
// remote user_progress table so reads and offline writes never need the
// network.
type ProgressRepo struct {
	db *sqlx.DB
}

type progressRow struct {
	UserID         string         `db:"user_id"`
	WordID         string         `db:"word_id"`
	CorrectCount   int            `db:"correct_count"`
	WrongCount     int            `db:"wrong_count"`
	MasteryLevel   int            `db:"mastery_level"`
	LastPracticed  sql.NullString `db:"last_practiced"`
	NextReviewDate string         `db:"next_review_date"`
}

func (r progressRow) toDomain() (progress.WordProgress, error) {
	p := progress.WordProgress{
		UserID:       r.UserID,
		WordID:       r.WordID,
		CorrectCount: r.CorrectCount,
		WrongCount:   r.WrongCount,
		MasteryLevel: r.MasteryLevel,
	}
	if r.LastPracticed.Valid {
		t, err := time.Parse(timeFormat, r.LastPracticed.String)
		if err != nil {
			return p, fmt.Errorf("parse last_practiced: %w", err)
		}
		p.LastPracticed = &t
	}
	if r.NextReviewDate != "" {
		t, err := time.Parse(timeFormat, r.NextReviewDate)
		if err != nil {
			return p, fmt.Errorf("parse next_review_date: %w", err)
		}
		p.NextReviewDate = t
	}
	return p, nil
}

// Get returns the cached row for (user, word), or nil if none exists.
func (r *ProgressRepo) Get(ctx context.Context, userID, wordID string) (*progress.WordProgress, error) {
	var row progressRow
	err := r.db.GetContext(ctx, &row,
		"SELECT * FROM word_progress WHERE user_id = ? AND word_id = ?", userID, wordID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get word progress: %w", err)
	}
	p, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert writes the full row, replacing any existing one. The local cache
// is single-writer (the facade serializes per word), so a plain replace
// is safe here; atomic increments matter at the remote boundary.
func (r *ProgressRepo) Upsert(ctx context.Context, p *progress.WordProgress) error {
	var lastPracticed sql.NullString
	if p.LastPracticed != nil {
		lastPracticed = sql.NullString{String: p.LastPracticed.Format(timeFormat), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO word_progress (
			user_id, word_id, correct_count, wrong_count,
			mastery_level, last_practiced, next_review_date
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, word_id) DO UPDATE SET
			correct_count = excluded.correct_count,
			wrong_count = excluded.wrong_count,
			mastery_level = excluded.mastery_level,
			last_practiced = excluded.last_practiced,
			next_review_date = excluded.next_review_date`,
		p.UserID, p.WordID, p.CorrectCount, p.WrongCount,
		p.MasteryLevel, lastPracticed, p.NextReviewDate.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("upsert word progress: %w", err)
	}
	return nil
}

// All returns every cached row for the user.
func (r *ProgressRepo) All(ctx context.Context, userID string) ([]progress.WordProgress, error) {
	var rows []progressRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM word_progress WHERE user_id = ? ORDER BY word_id", userID)
	if err != nil {
		return nil, fmt.Errorf("list word progress: %w", err)
	}

	out := make([]progress.WordProgress, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// ByWordIDs returns the cached rows for the given word ids, keyed by word.
func (r *ProgressRepo) ByWordIDs(ctx context.Context, userID string, wordIDs []string) (map[string]progress.WordProgress, error) {
	if len(wordIDs) == 0 {
		return map[string]progress.WordProgress{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT * FROM word_progress WHERE user_id = ? AND word_id IN (?)", userID, wordIDs)
	if err != nil {
		return nil, fmt.Errorf("build word query: %w", err)
	}

	var rows []progressRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select words: %w", err)
	}

	out := make(map[string]progress.WordProgress, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out[p.WordID] = p
	}
	return out, nil
}
