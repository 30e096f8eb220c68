package diagnosis

import (
	"fmt"
	"sort"

	"github.com/leozw/vitals-guardian/internal/core"
)

const (
	// MaxItems caps a diagnosis list.
	MaxItems = 5

	maxOpportunities        = 3
	minOpportunitySavings   = 0.5
	highOpportunitySavings  = 2.0
	highPerformanceScoreCut = 50.0
	goodPerformanceScore    = 90.0
)

// tier holds the canned text for one metric at one severity.
type tier struct {
	issue           string
	description     string
	recommendations []string
}

type vitalRule struct {
	metric core.Metric
	// values strictly above highAbove are high severity
	highAbove float64
	high      tier
	medium    tier
}

var vitalRules = []vitalRule{
	{
		metric:    core.MetricLCP,
		highAbove: 4.0,
		high: tier{
			issue:       "Largest Contentful Paint is very slow",
			description: "The main content takes %s to render, well above the 2.5s target.",
			recommendations: []string{
				"Preload the LCP image or font with <link rel=\"preload\">",
				"Serve images in modern formats (WebP/AVIF) at the rendered size",
				"Reduce server response time with caching or a CDN",
				"Remove render-blocking CSS and JavaScript from the critical path",
			},
		},
		medium: tier{
			issue:       "Largest Contentful Paint needs improvement",
			description: "The main content takes %s to render; aim for 2.5s or less.",
			recommendations: []string{
				"Compress and resize the hero image",
				"Inline critical CSS and defer the rest",
				"Avoid lazy-loading above-the-fold images",
			},
		},
	},
	{
		metric:    core.MetricCLS,
		highAbove: 0.25,
		high: tier{
			issue:       "Severe layout shifts",
			description: "Cumulative Layout Shift is %s; content moves noticeably while loading.",
			recommendations: []string{
				"Set explicit width and height on images and videos",
				"Reserve space for ads, embeds and iframes",
				"Avoid inserting content above existing content",
				"Use font-display: optional or preload web fonts",
			},
		},
		medium: tier{
			issue:       "Layout shifts need improvement",
			description: "Cumulative Layout Shift is %s; aim for 0.1 or less.",
			recommendations: []string{
				"Add size attributes to media elements",
				"Prefer transform animations over layout-changing properties",
				"Preload fonts to limit swaps",
			},
		},
	},
	{
		metric:    core.MetricINP,
		highAbove: 500,
		high: tier{
			issue:       "Interactions are very slow",
			description: "Interaction to Next Paint is %s; the page feels unresponsive.",
			recommendations: []string{
				"Break up long tasks with scheduler.yield or setTimeout",
				"Move heavy work off the main thread into web workers",
				"Reduce third-party script cost",
				"Avoid large synchronous DOM updates in event handlers",
			},
		},
		medium: tier{
			issue:       "Interaction responsiveness needs improvement",
			description: "Interaction to Next Paint is %s; aim for 200ms or less.",
			recommendations: []string{
				"Debounce expensive input handlers",
				"Defer non-critical JavaScript",
				"Keep the DOM size small",
			},
		},
	},
}

// Diagnose ranks the issues found in a snapshot, most severe first.
func Diagnose(snap core.Snapshot) []core.DiagnosisItem {
	items := []core.DiagnosisItem{}

	for _, rule := range vitalRules {
		v := snap.Value(rule.metric)
		if v == nil || core.Classify(rule.metric, v) == core.StatusGood {
			continue
		}
		sev, t := core.SeverityMedium, rule.medium
		if *v > rule.highAbove {
			sev, t = core.SeverityHigh, rule.high
		}
		items = append(items, core.DiagnosisItem{
			Severity:        sev,
			Issue:           t.issue,
			Description:     fmt.Sprintf(t.description, FormatValue(rule.metric, *v)),
			Recommendations: append([]string(nil), t.recommendations...),
		})
	}

	taken := 0
	for _, opp := range snap.Opportunities {
		if taken == maxOpportunities {
			break
		}
		if opp.SavingsSeconds <= minOpportunitySavings {
			continue
		}
		taken++

		sev := core.SeverityMedium
		if opp.SavingsSeconds > highOpportunitySavings {
			sev = core.SeverityHigh
		}
		desc := opp.Description
		if desc == "" {
			desc = fmt.Sprintf("Potential savings of %.2fs.", opp.SavingsSeconds)
		}
		items = append(items, core.DiagnosisItem{
			Severity:        sev,
			Issue:           opp.Title,
			Description:     desc,
			Recommendations: []string{fmt.Sprintf("Estimated savings: %.2fs", opp.SavingsSeconds)},
			IsOpportunity:   true,
		})
	}

	if p := snap.Performance; p != nil {
		switch {
		case *p < highPerformanceScoreCut:
			items = append(items, core.DiagnosisItem{
				Severity:    core.SeverityHigh,
				Issue:       "Poor overall performance score",
				Description: fmt.Sprintf("Performance score is %.0f out of 100.", *p),
				Recommendations: []string{
					"Address the highest-impact opportunities first",
					"Audit JavaScript bundle size and remove unused code",
					"Enable text compression and long-lived caching",
				},
			})
		case *p < goodPerformanceScore:
			items = append(items, core.DiagnosisItem{
				Severity:    core.SeverityMedium,
				Issue:       "Performance score can be improved",
				Description: fmt.Sprintf("Performance score is %.0f out of 100.", *p),
				Recommendations: []string{
					"Review the listed opportunities",
					"Optimize images and fonts",
					"Defer non-critical resources",
				},
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Severity > items[j].Severity
	})
	if len(items) > MaxItems {
		items = items[:MaxItems]
	}
	return items
}

// CountHigh returns the number of high severity items.
func CountHigh(items []core.DiagnosisItem) int {
	n := 0
	for _, it := range items {
		if it.Severity == core.SeverityHigh {
			n++
		}
	}
	return n
}

// FormatValue renders a metric value with its unit.
func FormatValue(m core.Metric, v float64) string {
	switch m.Unit() {
	case "s":
		return fmt.Sprintf("%.2fs", v)
	case "ms":
		return fmt.Sprintf("%.0fms", v)
	}
	if m == core.MetricCLS {
		return fmt.Sprintf("%.3f", v)
	}
	return fmt.Sprintf("%.0f", v)
}
