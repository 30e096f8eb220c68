package batch

import (
	"context"
	"time"

	"github.com/leozw/vitals-guardian/internal/core"
	"go.uber.org/zap"
)

// DefaultDelay spaces consecutive provider requests.
const DefaultDelay = 2 * time.Second

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	URL     string `json:"url"`
	Status  Status `json:"status"`
}

type Result struct {
	ID      string         `json:"id"`
	URL     string         `json:"url"`
	Success bool           `json:"success"`
	Data    *core.Snapshot `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// FetchFunc measures one target.
type FetchFunc func(ctx context.Context, target core.Target) (*core.Snapshot, error)

// ProgressFunc is called synchronously, in order, from the Run goroutine.
type ProgressFunc func(Progress)

// Orchestrator fetches targets one at a time with a fixed pause between
// requests.
type Orchestrator struct {
	delay  time.Duration
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewOrchestrator(delay time.Duration, logger *zap.Logger) *Orchestrator {
	if delay < 0 {
		delay = 0
	}
	return &Orchestrator{
		delay:  delay,
		logger: logger.With(zap.String("component", "batch")),
		sleep:  sleepContext,
	}
}

// Run processes every target and returns one result per target in input
// order. A failed fetch is recorded and the batch continues. Once ctx is
// done the remaining targets are marked failed without being fetched.
func (o *Orchestrator) Run(ctx context.Context, list []core.Target, fetch FetchFunc, onProgress ProgressFunc) []Result {
	if onProgress == nil {
		onProgress = func(Progress) {}
	}
	total := len(list)
	results := make([]Result, 0, total)

	for i, t := range list {
		if i > 0 && o.delay > 0 {
			if err := o.sleep(ctx, o.delay); err != nil {
				return o.abort(results, list[i:], err)
			}
		}
		if err := ctx.Err(); err != nil {
			return o.abort(results, list[i:], err)
		}

		onProgress(Progress{Current: i + 1, Total: total, URL: t.URL, Status: StatusProcessing})

		res := Result{ID: t.ID, URL: t.URL}
		snap, err := fetch(ctx, t)
		if err != nil {
			res.Error = err.Error()
			o.logger.Warn("Fetch failed",
				zap.String("target_id", t.ID),
				zap.String("url", t.URL),
				zap.Error(err),
			)
			onProgress(Progress{Current: i + 1, Total: total, URL: t.URL, Status: StatusError})
		} else {
			res.Success = true
			res.Data = snap
			onProgress(Progress{Current: i + 1, Total: total, URL: t.URL, Status: StatusCompleted})
		}
		results = append(results, res)
	}

	o.logger.Info("Batch finished",
		zap.Int("total", total),
		zap.Int("failed", Failed(results)),
	)
	return results
}

func (o *Orchestrator) abort(results []Result, rest []core.Target, err error) []Result {
	for _, t := range rest {
		results = append(results, Result{ID: t.ID, URL: t.URL, Error: err.Error()})
	}
	o.logger.Warn("Batch interrupted",
		zap.Int("skipped", len(rest)),
		zap.Error(err),
	)
	return results
}

// Failed counts unsuccessful results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
