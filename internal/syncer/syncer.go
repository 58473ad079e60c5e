// Package syncer replays the offline queue against the remote store:
// strictly in append order, advancing the persisted cursor after every
// confirmed event, stopping at the first failure so the rest of the
// queue stays intact for the next attempt.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/akuzmina/ripeto/internal/engine"
	"github.com/akuzmina/ripeto/internal/progress"
	"github.com/akuzmina/ripeto/internal/store"
)

// Syncer drains the durable event queue into the remote store.
type Syncer struct {
	store  *store.Store
	remote engine.Remote
	userID string
	logger *zap.Logger

	mu        sync.Mutex // one flush at a time
	scheduler *gocron.Scheduler
}

// New returns a syncer for the given user's queue.
func New(st *store.Store, remote engine.Remote, userID string, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		store:  st,
		remote: remote,
		userID: userID,
		logger: logger.Named("syncer"),
	}
}

// Flush replays every pending event in order. It returns how many events
// were applied. On failure the cursor stays on the failed event, so the
// next Flush resumes exactly there; events applied before the failure
// are never replayed again.
func (s *Syncer) Flush(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.remote == nil {
		return 0, fmt.Errorf("flush: %w", progress.ErrRemoteUnavailable)
	}

	queue := s.store.Queue()
	pending, err := queue.Pending(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	applied := 0
	for _, qe := range pending {
		if err := s.apply(ctx, qe.Event); err != nil {
			s.logger.Warn("replay stopped",
				zap.Int64("seq", qe.Seq), zap.Int("applied", applied), zap.Error(err))
			return applied, fmt.Errorf("replay event %d: %w", qe.Seq, err)
		}
		if err := queue.Advance(ctx, qe.Seq); err != nil {
			return applied, err
		}
		applied++
	}

	// The queue is drained; bring the remote gamification mirror up to
	// date with the state computed locally while offline.
	if err := s.pushGamification(ctx); err != nil {
		s.logger.Warn("gamification catch-up failed", zap.Error(err))
	}

	if err := queue.Prune(ctx); err != nil {
		s.logger.Warn("queue prune failed", zap.Error(err))
	}

	s.logger.Info("queue flushed", zap.Int("applied", applied))
	return applied, nil
}

// apply pushes one queued event. Answer events go through the remote's
// atomic-increment path; counters are commutative, so replaying on top
// of state another device moved converges to the sum of both.
func (s *Syncer) apply(ctx context.Context, ev progress.Event) error {
	switch ev.Kind {
	case progress.EventAnswer:
		_, err := s.remote.RecordAnswer(ctx, ev)
		return err

	case progress.EventSessionStart, progress.EventSessionEnd:
		sess, err := s.store.Sessions().Get(ctx, ev.SessionID)
		if err != nil {
			return err
		}
		if sess == nil {
			// The local row is gone (reset between queue and flush).
			// Nothing to push; skip rather than wedge the queue.
			s.logger.Warn("queued session not found locally, skipping",
				zap.String("session_id", ev.SessionID))
			return nil
		}
		return s.remote.SaveSession(ctx, sess)

	default:
		s.logger.Warn("unknown queued event kind, skipping", zap.String("kind", string(ev.Kind)))
		return nil
	}
}

func (s *Syncer) pushGamification(ctx context.Context) error {
	st, err := s.store.Gamification().State(ctx, s.userID)
	if err != nil {
		return err
	}
	if err := s.remote.SaveGamification(ctx, &st); err != nil {
		return err
	}
	unlocks, err := s.store.Gamification().Unlocks(ctx, s.userID)
	if err != nil {
		return err
	}
	if len(unlocks) == 0 {
		return nil
	}
	return s.remote.SaveUnlocks(ctx, s.userID, unlocks)
}

// Start schedules a background flush at the given interval. Failures are
// logged and retried on the next tick.
func (s *Syncer) Start(interval time.Duration) {
	if s.scheduler != nil {
		return
	}
	sch := gocron.NewScheduler(time.UTC)
	sch.Every(interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()
		if _, err := s.Flush(ctx); err != nil {
			s.logger.Debug("background flush failed, will retry", zap.Error(err))
		}
	})
	sch.StartAsync()
	s.scheduler = sch
}

// Stop halts the background flush loop.
func (s *Syncer) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
		s.scheduler = nil
	}
}
