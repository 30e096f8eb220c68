package diagnosis

import (
	"testing"

	"github.com/leozw/vitals-guardian/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func severities(items []core.DiagnosisItem) []core.Severity {
	out := make([]core.Severity, 0, len(items))
	for _, it := range items {
		out = append(out, it.Severity)
	}
	return out
}

func TestDiagnose_Empty(t *testing.T) {
	items := Diagnose(core.Snapshot{})
	assert.NotNil(t, items)
	assert.Empty(t, items)

	good := core.Snapshot{
		Performance: core.Float(98),
		LCP:         core.Float(1.2),
		CLS:         core.Float(0.01),
		INP:         core.Float(80),
	}
	assert.Empty(t, Diagnose(good))
}

func TestDiagnose_PoorLCPAndScore(t *testing.T) {
	snap := core.Snapshot{
		Performance: core.Float(40),
		LCP:         core.Float(5.0),
		CLS:         core.Float(0.05),
	}

	items := Diagnose(snap)
	require.Len(t, items, 2)
	assert.Equal(t, []core.Severity{core.SeverityHigh, core.SeverityHigh}, severities(items))
	assert.Equal(t, "Largest Contentful Paint is very slow", items[0].Issue)
	assert.Contains(t, items[0].Description, "5.00s")
	assert.Equal(t, "Poor overall performance score", items[1].Issue)
	assert.Equal(t, 2, CountHigh(items))
}

func TestDiagnose_Tiers(t *testing.T) {
	tests := []struct {
		name string
		snap core.Snapshot
		want core.Severity
	}{
		{"lcp medium", core.Snapshot{LCP: core.Float(3.0)}, core.SeverityMedium},
		{"lcp at poor boundary is medium", core.Snapshot{LCP: core.Float(4.0)}, core.SeverityMedium},
		{"cls medium", core.Snapshot{CLS: core.Float(0.2)}, core.SeverityMedium},
		{"cls high", core.Snapshot{CLS: core.Float(0.4)}, core.SeverityHigh},
		{"inp medium", core.Snapshot{INP: core.Float(300)}, core.SeverityMedium},
		{"inp high", core.Snapshot{INP: core.Float(900)}, core.SeverityHigh},
		{"performance medium", core.Snapshot{Performance: core.Float(70)}, core.SeverityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := Diagnose(tt.snap)
			require.Len(t, items, 1)
			assert.Equal(t, tt.want, items[0].Severity)
			assert.False(t, items[0].IsOpportunity)
			assert.GreaterOrEqual(t, len(items[0].Recommendations), 3)
			assert.LessOrEqual(t, len(items[0].Recommendations), 4)
		})
	}
}

func TestDiagnose_Opportunities(t *testing.T) {
	snap := core.Snapshot{
		Opportunities: []core.Opportunity{
			{ID: "a", Title: "tiny", SavingsSeconds: 0.5},
			{ID: "b", Title: "medium one", SavingsSeconds: 1.0},
			{ID: "c", Title: "big one", SavingsSeconds: 2.5},
			{ID: "d", Title: "medium two", SavingsSeconds: 2.0},
			{ID: "e", Title: "fourth", SavingsSeconds: 3.0},
		},
	}

	items := Diagnose(snap)
	require.Len(t, items, 3)
	assert.Equal(t, "big one", items[0].Issue)
	assert.Equal(t, core.SeverityHigh, items[0].Severity)
	// equal severities keep insertion order
	assert.Equal(t, "medium one", items[1].Issue)
	assert.Equal(t, "medium two", items[2].Issue)
	for _, it := range items {
		assert.True(t, it.IsOpportunity)
	}
}

func TestDiagnose_TruncatesAndSorts(t *testing.T) {
	snap := core.Snapshot{
		Performance: core.Float(60),
		LCP:         core.Float(3.0),
		CLS:         core.Float(0.5),
		INP:         core.Float(300),
		Opportunities: []core.Opportunity{
			{Title: "o1", SavingsSeconds: 1},
			{Title: "o2", SavingsSeconds: 3},
			{Title: "o3", SavingsSeconds: 4},
		},
	}

	items := Diagnose(snap)
	require.Len(t, items, MaxItems)
	assert.Equal(t, []core.Severity{
		core.SeverityHigh, core.SeverityHigh, core.SeverityHigh,
		core.SeverityMedium, core.SeverityMedium,
	}, severities(items))
	assert.Equal(t, "Severe layout shifts", items[0].Issue)
	assert.Equal(t, "o2", items[1].Issue)
	assert.Equal(t, "o3", items[2].Issue)
	assert.Equal(t, "Largest Contentful Paint needs improvement", items[3].Issue)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "4.50s", FormatValue(core.MetricLCP, 4.5))
	assert.Equal(t, "250ms", FormatValue(core.MetricINP, 250))
	assert.Equal(t, "0.120", FormatValue(core.MetricCLS, 0.12))
	assert.Equal(t, "85", FormatValue(core.MetricPerformance, 85))
}
