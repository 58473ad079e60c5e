// Package config resolves engine settings from a .env file and the
// environment. Flags override env; env overrides defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/akuzmina/ripeto/internal/schedule"
)

// Defaults.
const (
	DefaultUserID       = "local"
	DefaultSyncInterval = 30 * time.Second
)

// Config is everything the CLI needs to assemble the engine.
type Config struct {
	// UserID identifies the local user; auth is out of scope so the id
	// is supplied, not verified.
	UserID string

	// DBPath is the local SQLite file. Empty means the default XDG path.
	DBPath string

	// DatabaseURL is the remote Postgres DSN. Empty runs fully offline.
	DatabaseURL string

	// DueSoonDays is the due-soon window in days after tomorrow.
	DueSoonDays int

	// SyncInterval is how often the background flush retries the queue.
	SyncInterval time.Duration

	// Intervals overrides the review interval table. Nil keeps the
	// default 0/1/3/7/14/30 days.
	Intervals schedule.Intervals
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		UserID:       DefaultUserID,
		DueSoonDays:  schedule.DefaultDueSoonDays,
		SyncInterval: DefaultSyncInterval,
	}

	if v := os.Getenv("RIPETO_USER"); v != "" {
		cfg.UserID = v
	}
	if v := os.Getenv("RIPETO_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("RIPETO_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	} else if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("RIPETO_DUE_SOON_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("RIPETO_DUE_SOON_DAYS: expected a positive integer, got %q", v)
		}
		cfg.DueSoonDays = n
	}
	if v := os.Getenv("RIPETO_SYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("RIPETO_SYNC_INTERVAL: expected a positive duration, got %q", v)
		}
		cfg.SyncInterval = d
	}
	if v := os.Getenv("RIPETO_INTERVALS"); v != "" {
		iv, err := parseIntervals(v)
		if err != nil {
			return nil, err
		}
		cfg.Intervals = iv
	}

	return cfg, nil
}

// parseIntervals reads a comma-separated day list ("0,1,3,7,14,30"),
// one entry per mastery level starting at 0. Days must not decrease.
func parseIntervals(v string) (schedule.Intervals, error) {
	parts := strings.Split(v, ",")
	iv := make(schedule.Intervals, 0, len(parts))
	prev := -1
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n < prev {
			return nil, fmt.Errorf("RIPETO_INTERVALS: expected non-decreasing day counts, got %q", v)
		}
		iv = append(iv, n)
		prev = n
	}
	return iv, nil
}
