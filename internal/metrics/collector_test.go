package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/snappy"
	"github.com/leozw/vitals-guardian/internal/config"
	"github.com/leozw/vitals-guardian/internal/core"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/prometheus/prompb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func gaugeValue(t *testing.T, g interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, g interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetCounter().GetValue()
}

func TestCollector_RecordSnapshot(t *testing.T) {
	c := NewCollector(config.MimirConfig{}, zap.NewNop())
	target := core.Target{ID: "t1", DisplayName: "Example"}
	snap := &core.Snapshot{LCP: core.Float(4.5), Performance: core.Float(72)}

	c.RecordSnapshot(target, snap, 3*time.Second)

	assert.Equal(t, 4.5, gaugeValue(t, c.MetricValue.WithLabelValues("t1", "Example", "lcp")))
	assert.Equal(t, 2.0, gaugeValue(t, c.MetricStatus.WithLabelValues("t1", "Example", "lcp")))
	assert.Equal(t, 1.0, gaugeValue(t, c.MetricStatus.WithLabelValues("t1", "Example", "performance")))
	assert.Equal(t, 1.0, counterValue(t, c.SnapshotsTotal.WithLabelValues("t1", "success")))

	c.RecordFetchFailure(target, time.Second)
	assert.Equal(t, 1.0, counterValue(t, c.SnapshotsTotal.WithLabelValues("t1", "error")))

	c.ForgetTarget("t1")
	mfs, err := c.registry.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		assert.NotEqual(t, "vitals_metric_value", mf.GetName())
	}
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordSnapshot(core.Target{}, &core.Snapshot{}, 0)
		c.RecordFetchFailure(core.Target{}, 0)
		c.RecordDegradations("t", []core.DegradationEvent{{Metric: core.MetricLCP}})
		c.RecordAlert("webhook", true)
		c.RecordDomainMetric("example.com", "lcp", 1)
		c.ForgetTarget("t")
	})
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(config.MimirConfig{}, zap.NewNop())
	c.RecordAlert("webhook", false)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `vitals_alerts_sent_total{channel="webhook",status="failed"} 1`)
}

func TestCollector_Push(t *testing.T) {
	var (
		gotTenant string
		gotAuth   string
		series    []prompb.TimeSeries
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/push", r.URL.Path)
		gotTenant = r.Header.Get("X-Scope-OrgID")
		gotAuth = r.Header.Get("Authorization")

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		raw, err := snappy.Decode(nil, body)
		require.NoError(t, err)
		var req prompb.WriteRequest
		require.NoError(t, req.Unmarshal(raw))
		series = append(series, req.Timeseries...)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewCollector(config.MimirConfig{
		URL:          srv.URL,
		TenantHeader: "X-Scope-OrgID",
		TenantID:     "vitals",
		BatchSize:    2,
		AuthToken:    "tok",
	}, zap.NewNop())
	c.RecordDegradations("t1", []core.DegradationEvent{{Metric: core.MetricLCP}, {Metric: core.MetricCLS}})
	c.RecordDomainMetric("example.com", "performance", 85)

	require.NoError(t, c.Push(context.Background()))

	assert.Equal(t, "vitals", gotTenant)
	assert.Equal(t, "Bearer tok", gotAuth)
	require.Len(t, series, 3)
	for _, ts := range series {
		require.NotEmpty(t, ts.Labels)
		assert.Equal(t, "__name__", ts.Labels[0].Name)
		assert.True(t, strings.HasPrefix(ts.Labels[0].Value, "vitals_"))
	}
}

func TestCollector_PushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewCollector(config.MimirConfig{URL: srv.URL}, zap.NewNop())
	c.RecordAlert("log", true)
	assert.Error(t, c.Push(context.Background()))
}
