// Package catalog reads the vocabulary word list. The catalog is
// content, not user state: the reset command leaves it alone and the
// engine never writes to it during practice.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/akuzmina/ripeto/internal/progress"
)

// Word is one vocabulary entry with both language sides.
type Word struct {
	ID        string `db:"id" json:"id"`
	Russian   string `db:"russian" json:"russian"`
	Italian   string `db:"italian" json:"italian"`
	Category  string `db:"category" json:"category"`
	ExampleRu string `db:"example_ru" json:"exampleRu,omitempty"`
	ExampleIt string `db:"example_it" json:"exampleIt,omitempty"`
}

// Prompt returns the side shown to the user for the given direction.
func (w Word) Prompt(dir progress.Direction) string {
	if dir == progress.DirectionItRu {
		return w.Italian
	}
	return w.Russian
}

// Answer returns the side the user has to produce for the given direction.
func (w Word) Answer(dir progress.Direction) string {
	if dir == progress.DirectionItRu {
		return w.Russian
	}
	return w.Italian
}

// Repo provides read access to the word catalog.
type Repo struct {
	db *sqlx.DB
}

// New returns a catalog repository over db.
func New(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// Get returns a word by id, or nil if the catalog doesn't have it.
func (r *Repo) Get(ctx context.Context, id string) (*Word, error) {
	var w Word
	err := r.db.GetContext(ctx, &w, "SELECT * FROM words WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get word: %w", err)
	}
	return &w, nil
}

// All returns every catalog word ordered by id.
func (r *Repo) All(ctx context.Context) ([]Word, error) {
	var words []Word
	err := r.db.SelectContext(ctx, &words, "SELECT * FROM words ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	return words, nil
}

// ByCategory returns the words in one category ordered by id.
func (r *Repo) ByCategory(ctx context.Context, category string) ([]Word, error) {
	var words []Word
	err := r.db.SelectContext(ctx, &words,
		"SELECT * FROM words WHERE category = ? ORDER BY id", category)
	if err != nil {
		return nil, fmt.Errorf("list words by category: %w", err)
	}
	return words, nil
}

// Count returns the catalog size.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM words"); err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}
	return n, nil
}

// Import upserts words into the catalog. Used by the import command to
// load or refresh the word list; progress rows keyed by word id survive
// a re-import unchanged.
func (r *Repo) Import(ctx context.Context, words []Word) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("import words: %w", err)
	}
	defer tx.Rollback()

	for _, w := range words {
		if w.ID == "" {
			return &progress.ValidationError{Field: "id", Reason: "empty word id"}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO words (id, russian, italian, category, example_ru, example_it)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				russian = excluded.russian,
				italian = excluded.italian,
				category = excluded.category,
				example_ru = excluded.example_ru,
				example_it = excluded.example_it`,
			w.ID, w.Russian, w.Italian, w.Category, w.ExampleRu, w.ExampleIt,
		)
		if err != nil {
			return fmt.Errorf("import word %s: %w", w.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("import words: %w", err)
	}
	return nil
}
