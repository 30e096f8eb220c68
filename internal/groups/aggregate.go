package groups

import (
	"sort"
	"strings"
	"time"

	"github.com/leozw/vitals-guardian/internal/core"
	"github.com/leozw/vitals-guardian/internal/diagnosis"
	"github.com/leozw/vitals-guardian/internal/targets"
)

// InvalidDomain buckets targets whose URL has no usable host.
const InvalidDomain = "invalid-domain"

// DomainGroup summarizes every target sharing a registrable host.
type DomainGroup struct {
	Domain      string        `json:"domain"`
	Targets     []core.Target `json:"targets"`
	TargetCount int           `json:"targetCount"`
	// nil when no target in the domain has a snapshot
	AggregatedMetrics map[core.Metric]float64 `json:"aggregatedMetrics"`
	LastUpdated       *time.Time              `json:"lastUpdated"`
	TotalIssues       int                     `json:"totalIssues"`
}

// DomainKey maps a URL to its group key: the lowercased host without a
// leading "www.".
func DomainKey(rawURL string) string {
	host := targets.Hostname(rawURL)
	if host == "" {
		return InvalidDomain
	}
	return strings.TrimPrefix(host, "www.")
}

// GroupByDomain groups targets by DomainKey and averages the summary
// metrics of their latest snapshots.
func GroupByDomain(list []core.Target, latest map[string]*core.Snapshot) map[string]*DomainGroup {
	out := make(map[string]*DomainGroup)

	for _, t := range list {
		key := DomainKey(t.URL)
		g, ok := out[key]
		if !ok {
			g = &DomainGroup{Domain: key, Targets: []core.Target{}}
			out[key] = g
		}
		g.Targets = append(g.Targets, t)
		g.TargetCount++
	}

	for _, g := range out {
		aggregate(g, latest)
	}
	return out
}

func aggregate(g *DomainGroup, latest map[string]*core.Snapshot) {
	sums := make(map[core.Metric]float64)
	counts := make(map[core.Metric]int)

	for _, t := range g.Targets {
		snap := latest[t.ID]
		if snap == nil {
			continue
		}

		if g.LastUpdated == nil || snap.Timestamp.After(*g.LastUpdated) {
			ts := snap.Timestamp
			g.LastUpdated = &ts
		}
		g.TotalIssues += diagnosis.CountHigh(diagnosis.Diagnose(*snap))

		for _, m := range core.SummaryMetrics {
			if v := snap.Value(m); v != nil {
				sums[m] += *v
				counts[m]++
			}
		}
	}

	// snapshots stored without any metric do not count as data
	if len(sums) == 0 {
		return
	}
	g.AggregatedMetrics = make(map[core.Metric]float64, len(sums))
	for m, sum := range sums {
		g.AggregatedMetrics[m] = sum / float64(counts[m])
	}
}

// SortedDomains orders groups by domain name with the invalid bucket last.
func SortedDomains(groups map[string]*DomainGroup) []*DomainGroup {
	out := make([]*DomainGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Domain, out[j].Domain
		if (a == InvalidDomain) != (b == InvalidDomain) {
			return b == InvalidDomain
		}
		return a < b
	})
	return out
}
