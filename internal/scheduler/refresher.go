package scheduler

import (
	"context"
	"time"

	"github.com/leozw/vitals-guardian/internal/alerts"
	"github.com/leozw/vitals-guardian/internal/batch"
	"github.com/leozw/vitals-guardian/internal/core"
	"github.com/leozw/vitals-guardian/internal/degradation"
	"github.com/leozw/vitals-guardian/internal/metrics"
	"github.com/leozw/vitals-guardian/internal/pagespeed"
	"github.com/leozw/vitals-guardian/internal/storage"
	"go.uber.org/zap"
)

// Fetcher is the performance data provider.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string, opts pagespeed.FetchOptions) (*core.Snapshot, error)
}

// Outcome is the result of refreshing one target.
type Outcome struct {
	Target       core.Target             `json:"target"`
	Snapshot     *core.Snapshot          `json:"snapshot"`
	Degradations []core.DegradationEvent `json:"degradations"`
}

// Refresher runs the fetch, append, detect, alert pipeline.
type Refresher struct {
	store      *storage.Store
	fetcher    Fetcher
	detector   *degradation.Detector
	dispatcher *alerts.Dispatcher
	batch      *batch.Orchestrator
	metrics    *metrics.Collector
	logger     *zap.Logger
}

func NewRefresher(
	store *storage.Store,
	fetcher Fetcher,
	dispatcher *alerts.Dispatcher,
	orchestrator *batch.Orchestrator,
	metrics *metrics.Collector,
	logger *zap.Logger,
) *Refresher {
	return &Refresher{
		store:      store,
		fetcher:    fetcher,
		detector:   degradation.NewDetector(store, logger),
		dispatcher: dispatcher,
		batch:      orchestrator,
		metrics:    metrics,
		logger:     logger.With(zap.String("component", "refresher")),
	}
}

// RefreshTarget measures a single target now.
func (r *Refresher) RefreshTarget(ctx context.Context, id string) (*Outcome, error) {
	target, err := r.store.Target(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.process(ctx, *target, r.store.Settings(ctx))
}

// RefreshAll measures every tracked target through the batch orchestrator.
func (r *Refresher) RefreshAll(ctx context.Context, onProgress batch.ProgressFunc) []batch.Result {
	settings := r.store.Settings(ctx)
	list := r.store.Targets(ctx)

	r.logger.Info("Refreshing all targets", zap.Int("count", len(list)))

	return r.batch.Run(ctx, list, func(ctx context.Context, t core.Target) (*core.Snapshot, error) {
		out, err := r.process(ctx, t, settings)
		if err != nil {
			return nil, err
		}
		return out.Snapshot, nil
	}, onProgress)
}

func (r *Refresher) process(ctx context.Context, target core.Target, settings core.Settings) (*Outcome, error) {
	start := time.Now()

	snap, err := r.fetcher.Fetch(ctx, target.URL, pagespeed.FetchOptions{
		APIKey:   settings.PageSpeedAPIKey,
		Strategy: settings.Strategy,
	})
	if err != nil {
		r.metrics.RecordFetchFailure(target, time.Since(start))
		return nil, err
	}

	r.store.Append(ctx, target.ID, *snap)
	events := r.detector.Detect(ctx, target.ID, *snap)

	r.metrics.RecordSnapshot(target, snap, time.Since(start))
	r.metrics.RecordDegradations(target.ID, events)

	if settings.AlertsEnabled && len(events) > 0 {
		// delivery failures are logged by the dispatcher
		_ = r.dispatcher.Dispatch(ctx, target, events, settings.WebhookURL)
	}

	r.logger.Debug("Target refreshed",
		zap.String("target_id", target.ID),
		zap.Int("degradations", len(events)),
		zap.Duration("duration", time.Since(start)),
	)

	return &Outcome{Target: target, Snapshot: snap, Degradations: events}, nil
}
