package metrics

import (
	"net/http"
	"time"

	"github.com/leozw/vitals-guardian/internal/config"
	"github.com/leozw/vitals-guardian/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Collector owns a private registry so several collectors can coexist in
// one process (tests, the CLI). All Record methods are no-ops on a nil
// Collector.
type Collector struct {
	config   *config.MimirConfig
	logger   *zap.Logger
	registry *prometheus.Registry

	// Vitals
	MetricValue       *prometheus.GaugeVec
	MetricStatus      *prometheus.GaugeVec
	SnapshotsTotal    *prometheus.CounterVec
	DegradationsTotal *prometheus.CounterVec
	FetchDuration     *prometheus.HistogramVec

	// Alerts
	AlertsSentTotal *prometheus.CounterVec

	// Domains
	DomainMetricValue *prometheus.GaugeVec
}

func NewCollector(cfg config.MimirConfig, logger *zap.Logger) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		config:   &cfg,
		logger:   logger,
		registry: reg,

		MetricValue: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vitals_metric_value",
				Help: "Latest value of a web vitals metric",
			},
			[]string{"target_id", "display_name", "metric"},
		),

		MetricStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vitals_metric_status",
				Help: "Latest classification of a metric (0=good, 1=needs-improvement, 2=poor)",
			},
			[]string{"target_id", "display_name", "metric"},
		),

		SnapshotsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vitals_snapshots_total",
				Help: "Total number of snapshot fetches",
			},
			[]string{"target_id", "result"},
		),

		DegradationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vitals_degradations_total",
				Help: "Total number of detected degradations",
			},
			[]string{"target_id", "metric"},
		),

		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vitals_fetch_duration_seconds",
				Help:    "Duration of performance data fetches in seconds",
				Buckets: []float64{1, 2.5, 5, 10, 20, 30, 45, 60, 90},
			},
			[]string{"result"},
		),

		AlertsSentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vitals_alerts_sent_total",
				Help: "Total number of alert deliveries",
			},
			[]string{"channel", "status"},
		),

		DomainMetricValue: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vitals_domain_metric_value",
				Help: "Mean metric value across the targets of a domain",
			},
			[]string{"domain", "metric"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RecordSnapshot exports the values and statuses of a fetched snapshot.
func (c *Collector) RecordSnapshot(target core.Target, snap *core.Snapshot, duration time.Duration) {
	if c == nil {
		return
	}
	c.SnapshotsTotal.WithLabelValues(target.ID, "success").Inc()
	c.FetchDuration.WithLabelValues("success").Observe(duration.Seconds())

	for _, m := range core.AllMetrics {
		v := snap.Value(m)
		if v == nil {
			continue
		}
		labels := prometheus.Labels{
			"target_id":    target.ID,
			"display_name": target.DisplayName,
			"metric":       string(m),
		}
		c.MetricValue.With(labels).Set(*v)
		if rank := core.Classify(m, v).Rank(); rank >= 0 {
			c.MetricStatus.With(labels).Set(float64(rank))
		}
	}
}

func (c *Collector) RecordFetchFailure(target core.Target, duration time.Duration) {
	if c == nil {
		return
	}
	c.SnapshotsTotal.WithLabelValues(target.ID, "error").Inc()
	c.FetchDuration.WithLabelValues("error").Observe(duration.Seconds())
}

func (c *Collector) RecordDegradations(targetID string, events []core.DegradationEvent) {
	if c == nil {
		return
	}
	for _, e := range events {
		c.DegradationsTotal.WithLabelValues(targetID, string(e.Metric)).Inc()
	}
}

func (c *Collector) RecordAlert(channel string, success bool) {
	if c == nil {
		return
	}
	status := "success"
	if !success {
		status = "failed"
	}
	c.AlertsSentTotal.WithLabelValues(channel, status).Inc()
}

func (c *Collector) RecordDomainMetric(domain, metric string, value float64) {
	if c == nil {
		return
	}
	c.DomainMetricValue.WithLabelValues(domain, metric).Set(value)
}

// ForgetTarget drops the series of a removed target.
func (c *Collector) ForgetTarget(targetID string) {
	if c == nil {
		return
	}
	match := prometheus.Labels{"target_id": targetID}
	c.MetricValue.DeletePartialMatch(match)
	c.MetricStatus.DeletePartialMatch(match)
	c.SnapshotsTotal.DeletePartialMatch(match)
	c.DegradationsTotal.DeletePartialMatch(match)
}
