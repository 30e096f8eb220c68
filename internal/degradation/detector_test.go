package degradation

import (
	"context"
	"testing"
	"time"

	"github.com/leozw/vitals-guardian/internal/core"
	"github.com/leozw/vitals-guardian/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDetector(t *testing.T) (*Detector, *storage.Store, string) {
	t.Helper()
	store := storage.NewStore(storage.NewMemoryBackend(), nil, zap.NewNop(), 0)
	tg, err := store.AddTarget(context.Background(), "https://example.com", "")
	require.NoError(t, err)
	return NewDetector(store, zap.NewNop()), store, tg.ID
}

func at(minute int, snap core.Snapshot) core.Snapshot {
	snap.Timestamp = time.Date(2026, 4, 1, 9, minute, 0, 0, time.UTC)
	return snap
}

func TestDetect_NeedsBaseline(t *testing.T) {
	d, store, id := newDetector(t)
	ctx := context.Background()

	bad := at(1, core.Snapshot{LCP: core.Float(9), Performance: core.Float(5)})
	assert.Empty(t, d.Detect(ctx, id, bad))

	store.Append(ctx, id, bad)
	assert.Empty(t, d.Detect(ctx, id, bad))
}

func TestDetect_LCPCrossedToPoor(t *testing.T) {
	d, store, id := newDetector(t)
	ctx := context.Background()

	store.Append(ctx, id, at(1, core.Snapshot{LCP: core.Float(2.0)}))
	next := at(2, core.Snapshot{LCP: core.Float(4.5)})
	store.Append(ctx, id, next)

	events := d.Detect(ctx, id, next)
	require.Len(t, events, 1)
	assert.Equal(t, core.DegradationEvent{
		Metric:        core.MetricLCP,
		PreviousValue: 2.0,
		NewValue:      4.5,
		ThresholdPoor: 4.0,
	}, events[0])
}

func TestDetect_UsesSecondToLast(t *testing.T) {
	d, store, id := newDetector(t)
	ctx := context.Background()

	store.Append(ctx, id, at(1, core.Snapshot{TTFB: core.Float(0.1)}))
	store.Append(ctx, id, at(2, core.Snapshot{TTFB: core.Float(1.0)}))
	next := at(3, core.Snapshot{TTFB: core.Float(1.1)})
	store.Append(ctx, id, next)

	// 1.0 -> 1.1 is +10%, below the relative bar; the first entry is ignored
	assert.Empty(t, d.Detect(ctx, id, next))
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		previous core.Snapshot
		next     core.Snapshot
		want     []core.Metric
	}{
		{
			name:     "cls relative increase while still good",
			previous: core.Snapshot{CLS: core.Float(0.05)},
			next:     core.Snapshot{CLS: core.Float(0.09)},
			want:     []core.Metric{core.MetricCLS},
		},
		{
			name:     "cls below the 1.5x bar",
			previous: core.Snapshot{CLS: core.Float(0.05)},
			next:     core.Snapshot{CLS: core.Float(0.07)},
			want:     []core.Metric{},
		},
		{
			name:     "fcp above the 1.2x bar",
			previous: core.Snapshot{FCP: core.Float(1.0)},
			next:     core.Snapshot{FCP: core.Float(1.3)},
			want:     []core.Metric{core.MetricFCP},
		},
		{
			name:     "inp below the 1.2x bar",
			previous: core.Snapshot{INP: core.Float(100)},
			next:     core.Snapshot{INP: core.Float(115)},
			want:     []core.Metric{},
		},
		{
			name:     "missing values are skipped",
			previous: core.Snapshot{LCP: core.Float(1.0)},
			next:     core.Snapshot{FCP: core.Float(9.0)},
			want:     []core.Metric{},
		},
		{
			name:     "performance drop of ten",
			previous: core.Snapshot{Performance: core.Float(92)},
			next:     core.Snapshot{Performance: core.Float(82)},
			want:     []core.Metric{core.MetricPerformance},
		},
		{
			name:     "performance drop of nine",
			previous: core.Snapshot{Performance: core.Float(92)},
			next:     core.Snapshot{Performance: core.Float(83)},
			want:     []core.Metric{},
		},
		{
			name: "events follow check order",
			previous: core.Snapshot{
				Performance: core.Float(95), LCP: core.Float(1.0), FCP: core.Float(1.0),
				CLS: core.Float(0.01), TTFB: core.Float(0.2), INP: core.Float(50),
			},
			next: core.Snapshot{
				Performance: core.Float(40), LCP: core.Float(5.0), FCP: core.Float(4.0),
				CLS: core.Float(0.3), TTFB: core.Float(2.0), INP: core.Float(600),
			},
			want: []core.Metric{
				core.MetricLCP, core.MetricFCP, core.MetricCLS,
				core.MetricTTFB, core.MetricINP, core.MetricPerformance,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := Compare(tt.previous, tt.next)
			got := make([]core.Metric, 0, len(events))
			for _, e := range events {
				got = append(got, e.Metric)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompare_PerformanceThreshold(t *testing.T) {
	events := Compare(
		core.Snapshot{Performance: core.Float(70)},
		core.Snapshot{Performance: core.Float(55)},
	)
	require.Len(t, events, 1)
	assert.Equal(t, 50.0, events[0].ThresholdPoor)
}
