package core

import "time"

// Snapshot is one measurement of a Target. Every metric is optional: the
// provider may omit a category or an audit.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	// Category scores, 0-100
	Performance   *float64 `json:"performance"`
	Accessibility *float64 `json:"accessibility"`
	BestPractices *float64 `json:"bestPractices"`
	SEO           *float64 `json:"seo"`

	// Timings
	LCP               *float64 `json:"lcp"`  // seconds
	FCP               *float64 `json:"fcp"`  // seconds
	CLS               *float64 `json:"cls"`  // unitless
	TTFB              *float64 `json:"ttfb"` // seconds
	INP               *float64 `json:"inp"`  // milliseconds
	SpeedIndex        *float64 `json:"speedIndex"`
	TotalBlockingTime *float64 `json:"totalBlockingTime"`

	Opportunities []Opportunity `json:"opportunities"`
}

// Opportunity is an optimization flagged by the provider.
type Opportunity struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	SavingsSeconds float64 `json:"savingsSeconds"`
	Score          float64 `json:"score"`
}

// Value returns the field backing metric m, or nil.
func (s *Snapshot) Value(m Metric) *float64 {
	if s == nil {
		return nil
	}
	switch m {
	case MetricPerformance:
		return s.Performance
	case MetricAccessibility:
		return s.Accessibility
	case MetricBestPractices:
		return s.BestPractices
	case MetricSEO:
		return s.SEO
	case MetricLCP:
		return s.LCP
	case MetricFCP:
		return s.FCP
	case MetricCLS:
		return s.CLS
	case MetricTTFB:
		return s.TTFB
	case MetricINP:
		return s.INP
	case MetricSpeedIndex:
		return s.SpeedIndex
	case MetricTotalBlockingTime:
		return s.TotalBlockingTime
	}
	return nil
}

// SetValue assigns metric m. Unknown metrics are ignored.
func (s *Snapshot) SetValue(m Metric, v *float64) {
	switch m {
	case MetricPerformance:
		s.Performance = v
	case MetricAccessibility:
		s.Accessibility = v
	case MetricBestPractices:
		s.BestPractices = v
	case MetricSEO:
		s.SEO = v
	case MetricLCP:
		s.LCP = v
	case MetricFCP:
		s.FCP = v
	case MetricCLS:
		s.CLS = v
	case MetricTTFB:
		s.TTFB = v
	case MetricINP:
		s.INP = v
	case MetricSpeedIndex:
		s.SpeedIndex = v
	case MetricTotalBlockingTime:
		s.TotalBlockingTime = v
	}
}

// HasPerformanceData reports whether the snapshot carries at least one
// score or timing.
func (s *Snapshot) HasPerformanceData() bool {
	for _, m := range AllMetrics {
		if s.Value(m) != nil {
			return true
		}
	}
	return false
}

// Statuses classifies every metric present in the snapshot.
func (s *Snapshot) Statuses() map[Metric]Status {
	out := make(map[Metric]Status)
	for _, m := range AllMetrics {
		if v := s.Value(m); v != nil {
			out[m] = Classify(m, v)
		}
	}
	return out
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
