package pagespeed

import (
	"math"
	"sort"
	"time"

	"github.com/leozw/vitals-guardian/internal/core"
)

type response struct {
	LighthouseResult  *lighthouseResult `json:"lighthouseResult"`
	LoadingExperience struct {
		Metrics map[string]struct {
			Percentile *float64 `json:"percentile"`
		} `json:"metrics"`
	} `json:"loadingExperience"`
}

type lighthouseResult struct {
	Categories map[string]struct {
		Score *float64 `json:"score"`
	} `json:"categories"`
	Audits map[string]audit `json:"audits"`
}

type audit struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Score        *float64 `json:"score"`
	NumericValue *float64 `json:"numericValue"`
	NumericUnit  string   `json:"numericUnit"`
	Details      *struct {
		Type             string  `json:"type"`
		OverallSavingsMs float64 `json:"overallSavingsMs"`
	} `json:"details"`
}

var categoryMetrics = map[string]core.Metric{
	"performance":    core.MetricPerformance,
	"accessibility":  core.MetricAccessibility,
	"best-practices": core.MetricBestPractices,
	"seo":            core.MetricSEO,
}

var auditMetrics = map[string]core.Metric{
	"largest-contentful-paint":  core.MetricLCP,
	"first-contentful-paint":    core.MetricFCP,
	"cumulative-layout-shift":   core.MetricCLS,
	"server-response-time":      core.MetricTTFB,
	"interaction-to-next-paint": core.MetricINP,
	"speed-index":               core.MetricSpeedIndex,
	"total-blocking-time":       core.MetricTotalBlockingTime,
}

func (r *response) snapshot(ts time.Time) (*core.Snapshot, error) {
	lh := r.LighthouseResult
	if lh == nil {
		return nil, ErrNoLighthouseResult
	}

	snap := &core.Snapshot{Timestamp: ts, Opportunities: []core.Opportunity{}}

	for name, m := range categoryMetrics {
		if cat, ok := lh.Categories[name]; ok && cat.Score != nil {
			snap.SetValue(m, core.Float(math.Round(*cat.Score*100)))
		}
	}

	for id, m := range auditMetrics {
		a, ok := lh.Audits[id]
		if !ok || a.NumericValue == nil {
			continue
		}
		snap.SetValue(m, convert(m, *a.NumericValue, a.NumericUnit))
	}

	// lab runs rarely measure INP; fall back to field data
	if snap.INP == nil {
		if fm, ok := r.LoadingExperience.Metrics["INTERACTION_TO_NEXT_PAINT"]; ok && fm.Percentile != nil {
			snap.INP = core.Float(*fm.Percentile)
		}
	}

	snap.Opportunities = opportunities(lh.Audits)
	return snap, nil
}

// convert maps a provider value to the unit the snapshot stores, using the
// unit tag the provider attaches to every numeric audit.
func convert(m core.Metric, v float64, unit string) *float64 {
	switch m.Unit() {
	case "s":
		if unit == "millisecond" {
			v /= 1000
		}
	case "ms":
		if unit == "second" {
			v *= 1000
		}
	}
	return core.Float(v)
}

func opportunities(audits map[string]audit) []core.Opportunity {
	out := []core.Opportunity{}
	for id, a := range audits {
		if a.Details == nil || a.Details.Type != "opportunity" || a.Details.OverallSavingsMs <= 0 {
			continue
		}
		opp := core.Opportunity{
			ID:             id,
			Title:          a.Title,
			Description:    a.Description,
			SavingsSeconds: a.Details.OverallSavingsMs / 1000,
		}
		if a.Score != nil {
			opp.Score = *a.Score
		}
		out = append(out, opp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SavingsSeconds != out[j].SavingsSeconds {
			return out[i].SavingsSeconds > out[j].SavingsSeconds
		}
		return out[i].ID < out[j].ID
	})
	return out
}
