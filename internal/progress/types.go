// Package progress defines the domain records of the learning engine:
// per-word progress, learning sessions, and the answer events that drive
// every durable mutation.
package progress

import (
	"time"
)

// Direction is a translation direction for a learning session.
type Direction string

const (
	DirectionRuIt Direction = "ru-it"
	DirectionItRu Direction = "it-ru"
)

// Valid reports whether d is one of the two supported directions.
func (d Direction) Valid() bool {
	return d == DirectionRuIt || d == DirectionItRu
}

// WordProgress is one row per (user, word). MasteryLevel is always derived
// from the counters via mastery.Level; it is stored only so the remote
// store can filter on it.
type WordProgress struct {
	UserID         string     `db:"user_id" json:"user_id"`
	WordID         string     `db:"word_id" json:"word_id"`
	CorrectCount   int        `db:"correct_count" json:"correct_count"`
	WrongCount     int        `db:"wrong_count" json:"wrong_count"`
	MasteryLevel   int        `db:"mastery_level" json:"mastery_level"`
	LastPracticed  *time.Time `db:"last_practiced" json:"last_practiced"`
	NextReviewDate time.Time  `db:"next_review_date" json:"next_review_date"`
}

// Attempts returns the total number of recorded answers for the word.
func (p *WordProgress) Attempts() int {
	return p.CorrectCount + p.WrongCount
}

// Session is one bounded practice session. EndedAt is nil while open.
type Session struct {
	ID             string     `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"user_id"`
	StartedAt      time.Time  `db:"started_at" json:"started_at"`
	EndedAt        *time.Time `db:"ended_at" json:"ended_at"`
	WordsStudied   int        `db:"words_studied" json:"words_studied"`
	CorrectAnswers int        `db:"correct_answers" json:"correct_answers"`
	Direction      Direction  `db:"learning_direction" json:"learning_direction"`
}

// Open reports whether the session has not been closed yet.
func (s *Session) Open() bool {
	return s.EndedAt == nil
}

// EventKind distinguishes the operations recorded in the offline queue.
type EventKind string

const (
	EventAnswer       EventKind = "answer"
	EventSessionStart EventKind = "session_start"
	EventSessionEnd   EventKind = "session_end"
)

// Event is the atomic input driving all derived state. Events are
// transient in the live path and durable only while queued offline.
type Event struct {
	Kind       EventKind `json:"kind"`
	UserID     string    `json:"user_id"`
	WordID     string    `json:"word_id,omitempty"`
	Correct    bool      `json:"correct,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	Direction  Direction `json:"direction,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Stats is the aggregated view the facade derives from the cached
// progress rows. Pure aggregation, never persisted.
type Stats struct {
	TotalWordsStudied int     `json:"total_words_studied"`
	TotalAttempts     int     `json:"total_attempts"`
	Accuracy          float64 `json:"accuracy"`
	CurrentStreak     int     `json:"current_streak"`
	MasteredWords     int     `json:"mastered_words"`
	WordsInProgress   int     `json:"words_in_progress"`
}
