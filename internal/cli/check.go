package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/leozw/vitals-guardian/internal/core"
	"github.com/leozw/vitals-guardian/internal/diagnosis"
	"github.com/leozw/vitals-guardian/internal/pagespeed"
	"github.com/leozw/vitals-guardian/internal/targets"
	"github.com/spf13/cobra"
)

// CheckResult is the output of a one-off check.
type CheckResult struct {
	URL       string                      `json:"url"`
	Snapshot  *core.Snapshot              `json:"snapshot"`
	Statuses  map[core.Metric]core.Status `json:"statuses"`
	Diagnosis []core.DiagnosisItem        `json:"diagnosis"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Fetch and diagnose a URL once without storing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pageURL, err := targets.Normalize(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid url", err)
			}

			a, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			settings := a.Store.Settings(ctx)
			opts := pagespeed.FetchOptions{APIKey: settings.PageSpeedAPIKey, Strategy: settings.Strategy}
			if strategy != "" {
				opts.Strategy = core.Strategy(strategy)
			}

			snap, err := a.PageSpeed.Fetch(ctx, pageURL, opts)
			if err != nil {
				return WrapExitError(ExitFailure, "fetch failed", err)
			}

			result := CheckResult{
				URL:       pageURL,
				Snapshot:  snap,
				Statuses:  snap.Statuses(),
				Diagnosis: diagnosis.Diagnose(*snap),
			}
			return rootOpts.formatter(cmd).Render(result, func(w io.Writer) {
				fmt.Fprintf(w, "%s\n\n", pageURL)
				writeStatuses(w, snap)
				writeDiagnosis(w, result.Diagnosis)
			})
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "mobile or desktop (defaults to settings)")
	return cmd
}

func writeStatuses(w io.Writer, snap *core.Snapshot) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE\tSTATUS")
	for _, m := range core.AllMetrics {
		v := snap.Value(m)
		if v == nil {
			fmt.Fprintf(tw, "%s\t-\t%s\n", m, core.StatusUnknown)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m, diagnosis.FormatValue(m, *v), core.Classify(m, v))
	}
	tw.Flush()
}

func writeDiagnosis(w io.Writer, items []core.DiagnosisItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "\nNo issues found.")
		return
	}
	fmt.Fprintln(w, "\nIssues:")
	for _, it := range items {
		fmt.Fprintf(w, "  [%s] %s\n", it.Severity, it.Issue)
		for _, r := range it.Recommendations {
			fmt.Fprintf(w, "      - %s\n", r)
		}
	}
}
