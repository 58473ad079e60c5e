// Package engine is the facade of the learning engine: it owns the
// update pipeline from an answer event to cached progress, gamification,
// the open session, and the remote push with its offline-queue fallback.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/akuzmina/ripeto/internal/catalog"
	"github.com/akuzmina/ripeto/internal/gamification"
	"github.com/akuzmina/ripeto/internal/mastery"
	"github.com/akuzmina/ripeto/internal/progress"
	"github.com/akuzmina/ripeto/internal/schedule"
	"github.com/akuzmina/ripeto/internal/session"
	"github.com/akuzmina/ripeto/internal/store"
)

// Remote is what the engine needs from the remote persistence boundary.
// A nil Remote is valid: the engine runs fully offline and every event
// lands in the durable queue.
type Remote interface {
	RecordAnswer(ctx context.Context, ev progress.Event) (*progress.WordProgress, error)
	SaveSession(ctx context.Context, s *progress.Session) error
	SaveGamification(ctx context.Context, st *gamification.State) error
	SaveUnlocks(ctx context.Context, userID string, unlocks []gamification.Unlock) error
}

// DifficultyRater is an optional capability a Remote may implement:
// a per-word difficulty score in [0, 1]. Absence is valid.
type DifficultyRater interface {
	RateDifficulty(ctx context.Context, userID, wordID string) (float64, error)
}

// Config carries the engine's tunables. Zero values fall back to the
// defaults of each subsystem.
type Config struct {
	UserID      string
	DueSoonDays int
	Intervals   schedule.Intervals
	Retry       RetryConfig
	Logger      *zap.Logger
	Now         func() time.Time
}

// Engine coordinates the local store, the gamification rules, the open
// session, and the remote boundary.
type Engine struct {
	store      *store.Store
	remote     Remote
	catalog    *catalog.Repo
	tracker    *session.Tracker
	game       *gamification.Engine
	classifier *schedule.Classifier
	intervals  schedule.Intervals
	retry      RetryConfig
	logger     *zap.Logger
	now        func() time.Time
	userID     string

	wordLocks *keyedMutex
	gmu       sync.Mutex // serializes gamification read-modify-write
}

// New builds an engine over the local store. remote and cat may be nil.
func New(st *store.Store, remote Remote, cat *catalog.Repo, cfg Config) (*Engine, error) {
	if st == nil {
		return nil, errors.New("engine: store is required")
	}
	if cfg.UserID == "" {
		return nil, &progress.ValidationError{Field: "userID", Reason: "must not be empty"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Intervals == nil {
		cfg.Intervals = schedule.DefaultIntervals
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Engine{
		store:      st,
		remote:     remote,
		catalog:    cat,
		tracker:    session.NewTracker(),
		game:       gamification.NewEngine(),
		classifier: schedule.NewClassifier(cfg.DueSoonDays),
		intervals:  cfg.Intervals,
		retry:      cfg.Retry,
		logger:     cfg.Logger.Named("engine"),
		now:        cfg.Now,
		wordLocks:  newKeyedMutex(),
		userID:     cfg.UserID,
	}, nil
}

// ApplyResult is everything one answer changed.
type ApplyResult struct {
	Progress progress.WordProgress
	Session  *progress.Session
	State    gamification.State
	Unlocks  []gamification.Unlock

	// Queued is true when the remote push failed and the event now waits
	// in the offline queue.
	Queued bool
}

// UpdateProgress records one answer for a word at the current time.
func (e *Engine) UpdateProgress(ctx context.Context, wordID string, correct bool) (*ApplyResult, error) {
	return e.ApplyEvent(ctx, progress.Event{
		Kind:       progress.EventAnswer,
		UserID:     e.userID,
		WordID:     wordID,
		Correct:    correct,
		OccurredAt: e.now(),
	})
}

// ApplyEvent runs the full answer pipeline: validate, update the cached
// row, bump the open session, apply gamification, then push to the
// remote store or fall back to the durable queue. Work for one word is
// serialized; different words proceed in parallel.
func (e *Engine) ApplyEvent(ctx context.Context, ev progress.Event) (*ApplyResult, error) {
	if ev.Kind != progress.EventAnswer {
		return nil, &progress.ValidationError{Field: "kind", Reason: "ApplyEvent accepts answer events"}
	}
	if ev.UserID == "" {
		return nil, &progress.ValidationError{Field: "userID", Reason: "must not be empty"}
	}
	if ev.WordID == "" {
		return nil, &progress.ValidationError{Field: "wordID", Reason: "must not be empty"}
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = e.now()
	}

	unlock := e.wordLocks.lock(ev.WordID)
	defer unlock()

	row, err := e.applyLocal(ctx, ev)
	if err != nil {
		return nil, err
	}

	res := &ApplyResult{Progress: *row}

	if snap := e.tracker.RecordAnswer(ev.Correct); snap != nil {
		if err := e.store.Sessions().Save(ctx, snap); err != nil {
			return nil, err
		}
		ev.SessionID = snap.ID
		res.Session = snap
	}

	st, unlocks, err := e.applyGamification(ctx, ev.Correct, ev.OccurredAt, nil)
	if err != nil {
		return nil, err
	}
	res.State = st
	res.Unlocks = unlocks

	if err := e.push(ctx, ev, &st, unlocks); err != nil {
		if queueable(err) {
			seq, qerr := e.store.Queue().Append(ctx, ev)
			if qerr != nil {
				return nil, fmt.Errorf("queue fallback: %w", qerr)
			}
			e.logger.Info("remote unavailable, event queued",
				zap.String("word_id", ev.WordID), zap.Int64("seq", seq), zap.Error(err))
			res.Queued = true
			return res, nil
		}
		// The remote accepted the connection but rejected the event. The
		// local update stands; surface the rejection to the caller.
		return res, fmt.Errorf("remote push: %w", err)
	}

	return res, nil
}

// applyLocal loads or creates the cached row and applies the increment
// with its derived fields.
func (e *Engine) applyLocal(ctx context.Context, ev progress.Event) (*progress.WordProgress, error) {
	row, err := e.store.Progress().Get(ctx, ev.UserID, ev.WordID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		row = &progress.WordProgress{UserID: ev.UserID, WordID: ev.WordID}
	}

	if ev.Correct {
		row.CorrectCount++
	} else {
		row.WrongCount++
	}
	row.MasteryLevel = mastery.Level(row.CorrectCount, row.WrongCount)
	practiced := ev.OccurredAt
	row.LastPracticed = &practiced
	row.NextReviewDate = e.intervals.NextReview(row.MasteryLevel, practiced)

	if err := e.store.Progress().Upsert(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// applyGamification runs the engine rules under the gamification lock
// and persists the outcome. sessionFacts, when non-nil, switches to the
// session-end evaluation path.
func (e *Engine) applyGamification(ctx context.Context, correct bool, now time.Time, sessionFacts *gamification.Facts) (gamification.State, []gamification.Unlock, error) {
	e.gmu.Lock()
	defer e.gmu.Unlock()

	st, err := e.store.Gamification().State(ctx, e.userID)
	if err != nil {
		return gamification.State{}, nil, err
	}
	already, err := e.store.Gamification().Unlocked(ctx, e.userID)
	if err != nil {
		return gamification.State{}, nil, err
	}

	var unlocks []gamification.Unlock
	if sessionFacts != nil {
		st, unlocks = e.game.OnSessionEnd(st, *sessionFacts, already, now)
	} else {
		facts, err := e.facts(ctx)
		if err != nil {
			return gamification.State{}, nil, err
		}
		st, unlocks = e.game.OnAnswer(st, correct, facts, already, now)
	}

	if err := e.store.Gamification().SaveState(ctx, &st); err != nil {
		return gamification.State{}, nil, err
	}
	if err := e.store.Gamification().AddUnlocks(ctx, e.userID, unlocks); err != nil {
		return gamification.State{}, nil, err
	}
	return st, unlocks, nil
}

// facts aggregates the cumulative achievement inputs from the cache.
func (e *Engine) facts(ctx context.Context) (gamification.Facts, error) {
	rows, err := e.store.Progress().All(ctx, e.userID)
	if err != nil {
		return gamification.Facts{}, err
	}

	var f gamification.Facts
	for _, r := range rows {
		f.TotalCorrect += r.CorrectCount
		if r.MasteryLevel == mastery.MaxLevel {
			f.MasteredWords++
		}
	}

	f.FinishedSessions, err = e.store.Sessions().CountFinished(ctx, e.userID)
	if err != nil {
		return gamification.Facts{}, err
	}
	return f, nil
}

// push sends the answer and the gamification snapshot to the remote
// store. The answer push is the gate: if it fails the whole push fails
// and the caller queues the event. Snapshot pushes after a successful
// answer are best effort; the next push or replay overwrites them.
func (e *Engine) push(ctx context.Context, ev progress.Event, st *gamification.State, unlocks []gamification.Unlock) error {
	if e.remote == nil {
		return fmt.Errorf("no remote configured: %w", progress.ErrRemoteUnavailable)
	}

	err := withRetry(ctx, e.retry, func(ctx context.Context) error {
		_, err := e.remote.RecordAnswer(ctx, ev)
		return err
	})
	if err != nil {
		return err
	}

	if err := e.remote.SaveGamification(ctx, st); err != nil {
		e.logger.Warn("gamification snapshot push failed", zap.Error(err))
	}
	if len(unlocks) > 0 {
		if err := e.remote.SaveUnlocks(ctx, e.userID, unlocks); err != nil {
			e.logger.Warn("unlock push failed", zap.Error(err))
		}
	}
	if ev.SessionID != "" {
		if snap := e.tracker.Current(); snap != nil && snap.ID == ev.SessionID {
			if err := e.remote.SaveSession(ctx, snap); err != nil {
				e.logger.Warn("session push failed", zap.Error(err))
			}
		}
	}
	return nil
}

// queueable reports whether a failed push should land in the offline
// queue rather than surface to the caller.
func queueable(err error) bool {
	return errors.Is(err, progress.ErrRemoteUnavailable) || progress.IsTransient(err)
}

// StartSession opens a session in the given direction. An already open
// session is closed first with full side effects.
func (e *Engine) StartSession(ctx context.Context, dir progress.Direction) (*progress.Session, error) {
	now := e.now()
	opened, closed, err := e.tracker.Start(e.userID, dir, now)
	if err != nil {
		return nil, err
	}

	if closed != nil {
		if err := e.finishSession(ctx, closed); err != nil {
			return nil, err
		}
	}

	if err := e.store.Sessions().Save(ctx, opened); err != nil {
		return nil, err
	}
	e.pushSessionOrQueue(ctx, opened, progress.EventSessionStart)
	return opened, nil
}

// EndSession closes the open session. With no open session it returns
// (nil, nil).
func (e *Engine) EndSession(ctx context.Context) (*progress.Session, error) {
	closed := e.tracker.End(e.now())
	if closed == nil {
		return nil, nil
	}
	if err := e.finishSession(ctx, closed); err != nil {
		return nil, err
	}
	return closed, nil
}

// CurrentSession returns a snapshot of the open session, or nil.
func (e *Engine) CurrentSession() *progress.Session {
	return e.tracker.Current()
}

// finishSession persists a closed session, re-evaluates session-count
// achievements, and pushes the close to the remote store.
func (e *Engine) finishSession(ctx context.Context, closed *progress.Session) error {
	if err := e.store.Sessions().Save(ctx, closed); err != nil {
		return err
	}

	facts, err := e.facts(ctx)
	if err != nil {
		return err
	}
	st, unlocks, err := e.applyGamification(ctx, false, *closed.EndedAt, &facts)
	if err != nil {
		return err
	}

	e.pushSessionOrQueue(ctx, closed, progress.EventSessionEnd)
	if e.remote != nil {
		if err := e.remote.SaveGamification(ctx, &st); err != nil {
			e.logger.Warn("gamification snapshot push failed", zap.Error(err))
		}
		if len(unlocks) > 0 {
			if err := e.remote.SaveUnlocks(ctx, e.userID, unlocks); err != nil {
				e.logger.Warn("unlock push failed", zap.Error(err))
			}
		}
	}
	return nil
}

// pushSessionOrQueue pushes a session row to the remote store, queuing
// a session event on failure. Queue append failures are logged, not
// fatal: the session row is already durable locally.
func (e *Engine) pushSessionOrQueue(ctx context.Context, s *progress.Session, kind progress.EventKind) {
	var err error
	if e.remote == nil {
		err = fmt.Errorf("no remote configured: %w", progress.ErrRemoteUnavailable)
	} else {
		err = withRetry(ctx, e.retry, func(ctx context.Context) error {
			return e.remote.SaveSession(ctx, s)
		})
	}
	if err == nil {
		return
	}

	ev := progress.Event{
		Kind:       kind,
		UserID:     s.UserID,
		SessionID:  s.ID,
		Direction:  s.Direction,
		OccurredAt: e.now(),
	}
	if _, qerr := e.store.Queue().Append(ctx, ev); qerr != nil {
		e.logger.Error("session event lost: queue append failed", zap.Error(qerr))
		return
	}
	e.logger.Info("remote unavailable, session event queued",
		zap.String("session_id", s.ID), zap.String("kind", string(kind)))
}

// GetStats aggregates the cached rows into the stats view.
func (e *Engine) GetStats(ctx context.Context) (*progress.Stats, error) {
	rows, err := e.store.Progress().All(ctx, e.userID)
	if err != nil {
		return nil, err
	}

	stats := &progress.Stats{TotalWordsStudied: len(rows)}
	correct := 0
	for _, r := range rows {
		stats.TotalAttempts += r.Attempts()
		correct += r.CorrectCount
		if r.MasteryLevel == mastery.MaxLevel {
			stats.MasteredWords++
		} else if r.Attempts() > 0 {
			stats.WordsInProgress++
		}
	}
	if stats.TotalAttempts > 0 {
		stats.Accuracy = float64(correct) / float64(stats.TotalAttempts)
	}

	st, err := e.store.Gamification().State(ctx, e.userID)
	if err != nil {
		return nil, err
	}
	stats.CurrentStreak = st.CurrentStreak
	return stats, nil
}

// GamificationState returns the user's XP/streak state and unlock history.
func (e *Engine) GamificationState(ctx context.Context) (gamification.State, []gamification.Unlock, error) {
	st, err := e.store.Gamification().State(ctx, e.userID)
	if err != nil {
		return gamification.State{}, nil, err
	}
	unlocks, err := e.store.Gamification().Unlocks(ctx, e.userID)
	if err != nil {
		return gamification.State{}, nil, err
	}
	return st, unlocks, nil
}

// GetDueWords classifies the candidate words against today. With nil
// candidateIDs every cached row is considered, plus catalog words never
// practiced (always due today) when a catalog is wired in.
func (e *Engine) GetDueWords(ctx context.Context, candidateIDs []string) (*schedule.Breakdown, error) {
	now := e.now()

	if candidateIDs != nil {
		byID, err := e.store.Progress().ByWordIDs(ctx, e.userID, candidateIDs)
		if err != nil {
			return nil, err
		}
		words := make([]progress.WordProgress, 0, len(candidateIDs))
		for _, id := range candidateIDs {
			if row, ok := byID[id]; ok {
				words = append(words, row)
			} else {
				words = append(words, progress.WordProgress{UserID: e.userID, WordID: id})
			}
		}
		return e.classifier.BuildBreakdown(words, now), nil
	}

	words, err := e.store.Progress().All(ctx, e.userID)
	if err != nil {
		return nil, err
	}
	if e.catalog != nil {
		seen := make(map[string]bool, len(words))
		for _, w := range words {
			seen[w.WordID] = true
		}
		all, err := e.catalog.All(ctx)
		if err != nil {
			return nil, err
		}
		for _, w := range all {
			if !seen[w.ID] {
				words = append(words, progress.WordProgress{UserID: e.userID, WordID: w.ID})
			}
		}
	}
	return e.classifier.BuildBreakdown(words, now), nil
}

// RecentSessions lists the user's latest sessions, newest first.
func (e *Engine) RecentSessions(ctx context.Context, limit int) ([]progress.Session, error) {
	return e.store.Sessions().ListRecent(ctx, e.userID, limit)
}

// RateDifficulty exposes the remote's optional difficulty capability.
// ok is false when the remote doesn't implement it; that is not an error.
func (e *Engine) RateDifficulty(ctx context.Context, wordID string) (rating float64, ok bool, err error) {
	rater, has := e.remote.(DifficultyRater)
	if !has {
		return 0, false, nil
	}
	rating, err = rater.RateDifficulty(ctx, e.userID, wordID)
	if err != nil {
		return 0, true, err
	}
	return rating, true, nil
}

// PendingEvents reports how many events wait in the offline queue.
func (e *Engine) PendingEvents(ctx context.Context) (int, error) {
	return e.store.Queue().PendingCount(ctx)
}
