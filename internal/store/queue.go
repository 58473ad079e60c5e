package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/akuzmina/ripeto/internal/progress"
)

// QueueRepo is the durable offline queue: an append-only event log plus a
// persisted replay cursor. The cursor row is the single source of truth
// for replay position, so a restart mid-flush resumes exactly where the
// last confirmed event left off.
type QueueRepo struct {
	db *sqlx.DB
}

// QueuedEvent is an event with its assigned log sequence.
type QueuedEvent struct {
	Seq   int64
	Event progress.Event
}

type queueRow struct {
	Seq        int64  `db:"seq"`
	Kind       string `db:"kind"`
	UserID     string `db:"user_id"`
	WordID     string `db:"word_id"`
	Correct    bool   `db:"correct"`
	SessionID  string `db:"session_id"`
	Direction  string `db:"direction"`
	OccurredAt string `db:"occurred_at"`
}

// Append adds an event to the tail of the log and returns its sequence.
func (r *QueueRepo) Append(ctx context.Context, ev progress.Event) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO queue_events (
			kind, user_id, word_id, correct, session_id, direction, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(ev.Kind), ev.UserID, ev.WordID, ev.Correct,
		ev.SessionID, string(ev.Direction), ev.OccurredAt.Format(timeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("append queue event: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("queue sequence: %w", err)
	}
	return seq, nil
}

// Cursor returns the sequence of the next event to replay.
func (r *QueueRepo) Cursor(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.GetContext(ctx, &next, "SELECT next_seq FROM queue_cursor WHERE id = 1")
	if err != nil {
		return 0, fmt.Errorf("read queue cursor: %w", err)
	}
	return next, nil
}

// Advance confirms that the event at seq has been applied: the cursor
// moves past it. Called once per replayed event, in order.
func (r *QueueRepo) Advance(ctx context.Context, seq int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE queue_cursor SET next_seq = ? WHERE id = 1 AND next_seq <= ?", seq+1, seq)
	if err != nil {
		return fmt.Errorf("advance queue cursor: %w", err)
	}
	return nil
}

// Pending returns events at or past the cursor in strict append order.
func (r *QueueRepo) Pending(ctx context.Context) ([]QueuedEvent, error) {
	cursor, err := r.Cursor(ctx)
	if err != nil {
		return nil, err
	}

	var rows []queueRow
	err = r.db.SelectContext(ctx, &rows,
		"SELECT * FROM queue_events WHERE seq >= ? ORDER BY seq ASC", cursor)
	if err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}

	out := make([]QueuedEvent, 0, len(rows))
	for _, row := range rows {
		occurredAt, err := time.Parse(timeFormat, row.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("parse occurred_at: %w", err)
		}
		out = append(out, QueuedEvent{
			Seq: row.Seq,
			Event: progress.Event{
				Kind:       progress.EventKind(row.Kind),
				UserID:     row.UserID,
				WordID:     row.WordID,
				Correct:    row.Correct,
				SessionID:  row.SessionID,
				Direction:  progress.Direction(row.Direction),
				OccurredAt: occurredAt,
			},
		})
	}
	return out, nil
}

// PendingCount returns how many events wait behind the cursor.
func (r *QueueRepo) PendingCount(ctx context.Context) (int, error) {
	cursor, err := r.Cursor(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM queue_events WHERE seq >= ?", cursor)
	if err != nil {
		return 0, fmt.Errorf("count pending events: %w", err)
	}
	return n, nil
}

// Prune deletes events already confirmed by the cursor. The log stays
// append-only for pending entries; only replayed history is dropped.
func (r *QueueRepo) Prune(ctx context.Context) error {
	cursor, err := r.Cursor(ctx)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM queue_events WHERE seq < ?", cursor); err != nil {
		return fmt.Errorf("prune queue: %w", err)
	}
	return nil
}
