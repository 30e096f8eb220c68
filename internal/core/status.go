package core

// Threshold holds the boundary values of a metric. For higher-is-better
// metrics Good >= Poor, for lower-is-better metrics Good <= Poor.
type Threshold struct {
	Good float64 `json:"good"`
	Poor float64 `json:"poor"`
}

var thresholds = map[Metric]Threshold{
	MetricPerformance:       {Good: 90, Poor: 50},
	MetricAccessibility:     {Good: 90, Poor: 50},
	MetricBestPractices:     {Good: 90, Poor: 50},
	MetricSEO:               {Good: 90, Poor: 50},
	MetricLCP:               {Good: 2.5, Poor: 4.0},
	MetricFCP:               {Good: 1.8, Poor: 3.0},
	MetricCLS:               {Good: 0.1, Poor: 0.25},
	MetricTTFB:              {Good: 0.8, Poor: 1.8},
	MetricINP:               {Good: 200, Poor: 500},
	MetricSpeedIndex:        {Good: 3.4, Poor: 5.8},
	MetricTotalBlockingTime: {Good: 200, Poor: 600},
}

// ThresholdFor looks up the boundaries of a metric.
func ThresholdFor(m Metric) (Threshold, bool) {
	t, ok := thresholds[m]
	return t, ok
}

// Thresholds returns a copy of the full threshold table.
func Thresholds() map[Metric]Threshold {
	out := make(map[Metric]Threshold, len(thresholds))
	for m, t := range thresholds {
		out[m] = t
	}
	return out
}

type Status string

const (
	StatusGood             Status = "good"
	StatusNeedsImprovement Status = "needs-improvement"
	StatusPoor             Status = "poor"
	StatusUnknown          Status = "unknown"
)

// Classify places a metric value into its threshold band.
func Classify(m Metric, value *float64) Status {
	if value == nil {
		return StatusUnknown
	}
	t, ok := thresholds[m]
	if !ok {
		return StatusUnknown
	}

	v := *value
	if m.HigherIsBetter() {
		switch {
		case v >= t.Good:
			return StatusGood
		case v >= t.Poor:
			return StatusNeedsImprovement
		default:
			return StatusPoor
		}
	}

	switch {
	case v <= t.Good:
		return StatusGood
	case v <= t.Poor:
		return StatusNeedsImprovement
	default:
		return StatusPoor
	}
}

// Rank orders statuses from best (0) to worst (2); unknown is -1.
func (s Status) Rank() int {
	switch s {
	case StatusGood:
		return 0
	case StatusNeedsImprovement:
		return 1
	case StatusPoor:
		return 2
	default:
		return -1
	}
}
