package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/leozw/vitals-guardian/internal/core"
	"github.com/leozw/vitals-guardian/internal/diagnosis"
	"github.com/leozw/vitals-guardian/internal/storage"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show the stored snapshots of a target, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.Store.Target(ctx, args[0]); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return WrapExitError(ExitCommandError, "unknown target "+args[0], err)
				}
				return err
			}

			history := a.Store.All(ctx, args[0])
			if limit > 0 && limit < len(history) {
				history = history[len(history)-limit:]
			}

			return rootOpts.formatter(cmd).Render(history, func(w io.Writer) {
				if len(history) == 0 {
					fmt.Fprintln(w, "No snapshots recorded.")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TIME\tPERF\tLCP\tFCP\tCLS\tTTFB\tINP")
				for _, s := range history {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
						s.Timestamp.Format(time.RFC3339),
						value(s, core.MetricPerformance),
						value(s, core.MetricLCP),
						value(s, core.MetricFCP),
						value(s, core.MetricCLS),
						value(s, core.MetricTTFB),
						value(s, core.MetricINP),
					)
				}
				tw.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "show only the newest N snapshots")
	return cmd
}

func value(s core.Snapshot, m core.Metric) string {
	v := s.Value(m)
	if v == nil {
		return "-"
	}
	return diagnosis.FormatValue(m, *v)
}
