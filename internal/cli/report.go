package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/leozw/vitals-guardian/internal/core"
	"github.com/leozw/vitals-guardian/internal/diagnosis"
	"github.com/spf13/cobra"
)

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Summarize the latest vitals per domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			summaries := a.Groups.Summaries(ctx)
			return rootOpts.formatter(cmd).Render(summaries, func(w io.Writer) {
				if len(summaries) == 0 {
					fmt.Fprintln(w, "No targets tracked.")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DOMAIN\tTARGETS\tPERF\tLCP\tCLS\tINP\tISSUES\tUPDATED")
				for _, g := range summaries {
					updated := "never"
					if g.LastUpdated != nil {
						updated = g.LastUpdated.Format(time.RFC3339)
					}
					fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
						g.Domain, g.TargetCount,
						cell(g.AggregatedMetrics, core.MetricPerformance),
						cell(g.AggregatedMetrics, core.MetricLCP),
						cell(g.AggregatedMetrics, core.MetricCLS),
						cell(g.AggregatedMetrics, core.MetricINP),
						g.TotalIssues, updated,
					)
				}
				tw.Flush()
			})
		},
	}
}

func cell(values map[core.Metric]float64, m core.Metric) string {
	v, ok := values[m]
	if !ok {
		return "-"
	}
	return diagnosis.FormatValue(m, v)
}
