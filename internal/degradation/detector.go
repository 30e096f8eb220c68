package degradation

import (
	"context"

	"github.com/leozw/vitals-guardian/internal/core"
	"go.uber.org/zap"
)

// performanceDrop is the score loss that counts as a regression.
const performanceDrop = 10.0

// Vitals checked for threshold crossings and relative increases, in
// emission order.
var checkedVitals = []core.Metric{
	core.MetricLCP,
	core.MetricFCP,
	core.MetricCLS,
	core.MetricTTFB,
	core.MetricINP,
}

// HistoryReader is the slice of the store the detector depends on.
type HistoryReader interface {
	All(ctx context.Context, targetID string) []core.Snapshot
}

type Detector struct {
	history HistoryReader
	logger  *zap.Logger
}

func NewDetector(history HistoryReader, logger *zap.Logger) *Detector {
	return &Detector{
		history: history,
		logger:  logger.With(zap.String("component", "degradation")),
	}
}

// Detect compares next against the snapshot stored just before it. It must
// run after next has been appended, so the baseline is the second-to-last
// entry of the history.
func (d *Detector) Detect(ctx context.Context, targetID string, next core.Snapshot) []core.DegradationEvent {
	history := d.history.All(ctx, targetID)
	if len(history) < 2 {
		return []core.DegradationEvent{}
	}

	events := Compare(history[len(history)-2], next)
	if len(events) > 0 {
		d.logger.Info("Degradations detected",
			zap.String("target_id", targetID),
			zap.Int("count", len(events)),
		)
	}
	return events
}

// Compare returns the regressions from previous to next.
func Compare(previous, next core.Snapshot) []core.DegradationEvent {
	events := []core.DegradationEvent{}

	for _, m := range checkedVitals {
		prev, cur := previous.Value(m), next.Value(m)
		if prev == nil || cur == nil {
			continue
		}
		t, _ := core.ThresholdFor(m)

		crossedToPoor := core.Classify(m, prev) == core.StatusGood && *cur > t.Poor
		significantIncrease := *cur > *prev*increaseFactor(m)
		if crossedToPoor || significantIncrease {
			events = append(events, core.DegradationEvent{
				Metric:        m,
				PreviousValue: *prev,
				NewValue:      *cur,
				ThresholdPoor: t.Poor,
			})
		}
	}

	if previous.Performance != nil && next.Performance != nil &&
		*previous.Performance-*next.Performance >= performanceDrop {
		t, _ := core.ThresholdFor(core.MetricPerformance)
		events = append(events, core.DegradationEvent{
			Metric:        core.MetricPerformance,
			PreviousValue: *previous.Performance,
			NewValue:      *next.Performance,
			ThresholdPoor: t.Poor,
		})
	}

	return events
}

// CLS moves in small absolute steps and needs a wider margin.
func increaseFactor(m core.Metric) float64 {
	if m == core.MetricCLS {
		return 1.5
	}
	return 1.2
}
