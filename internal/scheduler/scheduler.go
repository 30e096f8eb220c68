package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leozw/vitals-guardian/internal/batch"
	"github.com/leozw/vitals-guardian/internal/storage"
	"go.uber.org/zap"
)

// Scheduler re-runs RefreshAll on the auto-refresh interval.
type Scheduler struct {
	refresher *Refresher
	store     *storage.Store
	fallback  time.Duration
	tick      time.Duration
	logger    *zap.Logger

	running atomic.Bool
	lastRun time.Time
	wg      sync.WaitGroup
}

// NewScheduler uses fallback when settings carry no interval; with both
// unset auto-refresh is off.
func NewScheduler(refresher *Refresher, store *storage.Store, fallback time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		store:     store,
		fallback:  fallback,
		tick:      time.Minute,
		logger:    logger.With(zap.String("component", "scheduler")),
	}
}

// Start blocks until ctx is done, then waits for an in-flight run.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting scheduler", zap.Duration("tick", s.tick))

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping scheduler")
			s.wg.Wait()
			return
		case now := <-ticker.C:
			s.maybeRun(ctx, now)
		}
	}
}

func (s *Scheduler) interval(ctx context.Context) time.Duration {
	if minutes := s.store.Settings(ctx).AutoRefreshMinutes; minutes > 0 {
		return time.Duration(minutes) * time.Minute
	}
	return s.fallback
}

func (s *Scheduler) maybeRun(ctx context.Context, now time.Time) {
	interval := s.interval(ctx)
	if interval <= 0 {
		return
	}
	if !s.lastRun.IsZero() && now.Sub(s.lastRun) < interval {
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Previous refresh still running, skipping tick")
		return
	}
	s.lastRun = now

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)

		results := s.refresher.RefreshAll(ctx, nil)
		s.logger.Info("Auto-refresh finished",
			zap.Int("targets", len(results)),
			zap.Int("failed", batch.Failed(results)),
		)
	}()
}
