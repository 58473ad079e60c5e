// Package store is the local durable side of the engine: a SQLite cache
// of the user's progress plus the append-only offline queue that survives
// restarts mid-replay.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// timeFormat is how timestamps are stored in SQLite columns.
const timeFormat = "2006-01-02T15:04:05.999999999Z07:00"

// Store holds the SQLite handle and provides access to repositories.
type Store struct {
	db *sqlx.DB
}

// Open connects to the SQLite database at dsn, applies the recommended
// pragmas, and creates the schema if needed.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying handle for raw queries.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Progress returns the word-progress cache repository.
func (s *Store) Progress() *ProgressRepo {
	return &ProgressRepo{db: s.db}
}

// Sessions returns the session repository.
func (s *Store) Sessions() *SessionRepo {
	return &SessionRepo{db: s.db}
}

// Gamification returns the gamification-state repository.
func (s *Store) Gamification() *GamificationRepo {
	return &GamificationRepo{db: s.db}
}

// Queue returns the offline-queue repository.
func (s *Store) Queue() *QueueRepo {
	return &QueueRepo{db: s.db}
}

// Reset drops all local state. Used only by the explicit reset command;
// the engine itself never deletes progress rows.
func (s *Store) Reset() error {
	tables := []string{"word_progress", "sessions", "gamification", "achievements", "queue_events"}
	for _, tbl := range tables {
		if _, err := s.db.Exec("DELETE FROM " + tbl); err != nil {
			return fmt.Errorf("reset %s: %w", tbl, err)
		}
	}
	if _, err := s.db.Exec("UPDATE queue_cursor SET next_seq = 1 WHERE id = 1"); err != nil {
		return fmt.Errorf("reset queue cursor: %w", err)
	}
	return nil
}

// applyPragmas configures SQLite for single-user durability.
func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func createSchema(db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS words (
			id TEXT PRIMARY KEY,
			russian TEXT NOT NULL,
			italian TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			example_ru TEXT NOT NULL DEFAULT '',
			example_it TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS word_progress (
			user_id TEXT NOT NULL,
			word_id TEXT NOT NULL,
			correct_count INTEGER NOT NULL DEFAULT 0,
			wrong_count INTEGER NOT NULL DEFAULT 0,
			mastery_level INTEGER NOT NULL DEFAULT 0 CHECK (mastery_level BETWEEN 0 AND 5),
			last_practiced TEXT,
			next_review_date TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (user_id, word_id)
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			words_studied INTEGER NOT NULL DEFAULT 0,
			correct_answers INTEGER NOT NULL DEFAULT 0,
			learning_direction TEXT NOT NULL CHECK (learning_direction IN ('ru-it', 'it-ru'))
		)`,
		`CREATE TABLE IF NOT EXISTS gamification (
			user_id TEXT PRIMARY KEY,
			total_xp INTEGER NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_activity_date TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS achievements (
			user_id TEXT NOT NULL,
			achievement_type TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			reward_xp INTEGER NOT NULL DEFAULT 0,
			unlocked_at TEXT NOT NULL,
			PRIMARY KEY (user_id, achievement_type)
		)`,
		`CREATE TABLE IF NOT EXISTS queue_events (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			user_id TEXT NOT NULL,
			word_id TEXT NOT NULL DEFAULT '',
			correct INTEGER NOT NULL DEFAULT 0,
			session_id TEXT NOT NULL DEFAULT '',
			direction TEXT NOT NULL DEFAULT '',
			occurred_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS queue_cursor (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			next_seq INTEGER NOT NULL DEFAULT 1
		)`,
		`INSERT OR IGNORE INTO queue_cursor (id, next_seq) VALUES (1, 1)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. RIPETO_DB environment variable
// 2. $XDG_DATA_HOME/ripeto/ripeto.db
// 3. ~/.local/share/ripeto/ripeto.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("RIPETO_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "ripeto", "ripeto.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
