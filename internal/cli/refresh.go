package cli

import (
	"fmt"
	"io"

	"github.com/leozw/vitals-guardian/internal/batch"
	"github.com/spf13/cobra"
)

// NewRefreshCommand creates the refresh command.
func NewRefreshCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch a new snapshot for every tracked URL",
		Long: `Fetch a new snapshot for every tracked URL, one at a time with the
configured delay between requests. Progress goes to stderr. Exits 1 when
any target failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			f := rootOpts.formatter(cmd)
			results := a.Refresher.RefreshAll(ctx, func(p batch.Progress) {
				f.Progress("[%d/%d] %s %s", p.Current, p.Total, p.Status, p.URL)
			})

			if err := f.Render(results, func(w io.Writer) {
				for _, r := range results {
					if r.Success {
						fmt.Fprintf(w, "ok    %s\n", r.URL)
					} else {
						fmt.Fprintf(w, "FAIL  %s: %s\n", r.URL, r.Error)
					}
				}
			}); err != nil {
				return err
			}

			if failed := batch.Failed(results); failed > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d of %d targets failed", failed, len(results)))
			}
			return nil
		},
	}
}
