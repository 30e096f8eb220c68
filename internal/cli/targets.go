package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/leozw/vitals-guardian/internal/core"
	"github.com/leozw/vitals-guardian/internal/storage"
	"github.com/leozw/vitals-guardian/internal/targets"
	"github.com/spf13/cobra"
)

// NewTargetsCommand creates the targets command group.
func NewTargetsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Manage tracked URLs",
	}

	cmd.AddCommand(newTargetsAddCommand(rootOpts))
	cmd.AddCommand(newTargetsListCommand(rootOpts))
	cmd.AddCommand(newTargetsRemoveCommand(rootOpts))
	return cmd
}

func newTargetsAddCommand(rootOpts *RootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Start tracking a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			target, err := a.Store.AddTarget(ctx, args[0], name)
			switch {
			case errors.Is(err, storage.ErrDuplicateTarget):
				return WrapExitError(ExitCommandError, fmt.Sprintf("already tracked as %s", target.ID), err)
			case errors.Is(err, targets.ErrInvalidURL):
				return WrapExitError(ExitCommandError, "invalid url", err)
			case err != nil:
				return err
			}

			return rootOpts.formatter(cmd).Render(target, func(w io.Writer) {
				fmt.Fprintf(w, "Added %s (%s)\n", target.URL, target.ID)
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "display name (defaults to the hostname)")
	return cmd
}

func newTargetsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			list := a.Store.Targets(ctx)
			return rootOpts.formatter(cmd).Render(list, func(w io.Writer) {
				writeTargets(w, list)
			})
		},
	}
}

func newTargetsRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Stop tracking a URL and delete its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := rootOpts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Store.RemoveTarget(ctx, args[0]); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return WrapExitError(ExitCommandError, "unknown target "+args[0], err)
				}
				return err
			}

			result := map[string]string{"removed": args[0]}
			return rootOpts.formatter(cmd).Render(result, func(w io.Writer) {
				fmt.Fprintf(w, "Removed %s\n", args[0])
			})
		},
	}
}

func writeTargets(w io.Writer, list []core.Target) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No targets tracked.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tURL\tLAST CHECKED")
	for _, t := range list {
		checked := "never"
		if t.LastCheckedAt != nil {
			checked = t.LastCheckedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.DisplayName, t.URL, checked)
	}
	tw.Flush()
}
