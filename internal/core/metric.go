package core

// Metric names a score or timing field of a Snapshot.
type Metric string

const (
	MetricPerformance       Metric = "performance"
	MetricAccessibility     Metric = "accessibility"
	MetricBestPractices     Metric = "bestPractices"
	MetricSEO               Metric = "seo"
	MetricLCP               Metric = "lcp"
	MetricFCP               Metric = "fcp"
	MetricCLS               Metric = "cls"
	MetricTTFB              Metric = "ttfb"
	MetricINP               Metric = "inp"
	MetricSpeedIndex        Metric = "speedIndex"
	MetricTotalBlockingTime Metric = "totalBlockingTime"
)

// AllMetrics lists every metric a Snapshot can carry, scores first.
var AllMetrics = []Metric{
	MetricPerformance,
	MetricAccessibility,
	MetricBestPractices,
	MetricSEO,
	MetricLCP,
	MetricFCP,
	MetricCLS,
	MetricTTFB,
	MetricINP,
	MetricSpeedIndex,
	MetricTotalBlockingTime,
}

// SummaryMetrics are the metrics averaged for domain summaries.
var SummaryMetrics = []Metric{
	MetricPerformance,
	MetricAccessibility,
	MetricBestPractices,
	MetricSEO,
	MetricLCP,
	MetricFCP,
	MetricCLS,
	MetricTTFB,
	MetricINP,
}

// HigherIsBetter reports the polarity of a metric. Category scores grow
// towards 100; every timing and layout-shift metric shrinks towards 0.
func (m Metric) HigherIsBetter() bool {
	switch m {
	case MetricPerformance, MetricAccessibility, MetricBestPractices, MetricSEO:
		return true
	default:
		return false
	}
}

// Unit returns the display unit of the metric ("" for scores and CLS).
func (m Metric) Unit() string {
	switch m {
	case MetricLCP, MetricFCP, MetricTTFB, MetricSpeedIndex:
		return "s"
	case MetricINP, MetricTotalBlockingTime:
		return "ms"
	default:
		return ""
	}
}

// Valid reports whether m is a known metric name.
func (m Metric) Valid() bool {
	_, ok := thresholds[m]
	return ok
}
