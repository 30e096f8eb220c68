package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leozw/vitals-guardian/internal/config"
	"github.com/leozw/vitals-guardian/internal/core"
	"github.com/leozw/vitals-guardian/internal/metrics"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var target = core.Target{ID: "t1", URL: "https://example.com/", DisplayName: "Example"}

func alertCount(t *testing.T, c *metrics.Collector, channel, status string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.AlertsSentTotal.WithLabelValues(channel, status).Write(&m))
	return m.GetCounter().GetValue()
}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		event core.DegradationEvent
		want  string
	}{
		{core.DegradationEvent{Metric: core.MetricLCP, PreviousValue: 2, NewValue: 4.5}, "LCP degraded from 2.00s to 4.50s"},
		{core.DegradationEvent{Metric: core.MetricCLS, PreviousValue: 0.05, NewValue: 0.09}, "CLS degraded from 0.050 to 0.090"},
		{core.DegradationEvent{Metric: core.MetricINP, PreviousValue: 150, NewValue: 420}, "INP degraded from 150ms to 420ms"},
		{core.DegradationEvent{Metric: core.MetricPerformance, PreviousValue: 92, NewValue: 71}, "Performance score dropped from 92 to 71"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatEvent(tt.event))
		})
	}
}

func TestDispatch_NoEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("webhook must not be called")
	}))
	defer srv.Close()

	d := NewDispatcher(srv.URL, time.Second, zap.NewNop(), nil)
	assert.NoError(t, d.Dispatch(context.Background(), target, nil, ""))
}

func TestDispatch_LogAndWebhook(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	obs, logs := observer.New(zap.WarnLevel)
	collector := metrics.NewCollector(config.MimirConfig{}, zap.NewNop())
	d := NewDispatcher("", time.Second, zap.New(obs), collector)
	d.now = func() time.Time { return time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC) }

	events := []core.DegradationEvent{
		{Metric: core.MetricLCP, PreviousValue: 2, NewValue: 4.5, ThresholdPoor: 4},
		{Metric: core.MetricPerformance, PreviousValue: 90, NewValue: 70, ThresholdPoor: 50},
	}
	require.NoError(t, d.Dispatch(context.Background(), target, events, srv.URL))

	assert.Equal(t, "t1", got.TargetID)
	assert.Equal(t, "Example", got.DisplayName)
	assert.True(t, got.DetectedAt.Equal(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)))
	require.Len(t, got.Degradations, 2)
	assert.Equal(t, core.MetricLCP, got.Degradations[0].Metric)
	assert.Equal(t, 4.0, got.Degradations[0].ThresholdPoor)
	assert.Equal(t, "LCP degraded from 2.00s to 4.50s", got.Degradations[0].Message)

	assert.Equal(t, 2, logs.FilterMessage("Metric degraded").Len())
	assert.Equal(t, 1.0, alertCount(t, collector, ChannelLog, "success"))
	assert.Equal(t, 1.0, alertCount(t, collector, ChannelWebhook, "success"))
}

func TestDispatch_WebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	collector := metrics.NewCollector(config.MimirConfig{}, zap.NewNop())
	d := NewDispatcher(srv.URL, time.Second, zap.NewNop(), collector)

	err := d.Dispatch(context.Background(), target, []core.DegradationEvent{{Metric: core.MetricCLS}}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, 1.0, alertCount(t, collector, ChannelWebhook, "failed"))
}
