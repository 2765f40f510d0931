package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"revpipe/internal/bootstrap"
	"revpipe/internal/bootstrap/logging"
	"revpipe/internal/errs"
)

var queuePurgeCmd = &cobra.Command{
	Use:   "purge <queue>",
	Short: "Drain a work-item queue",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		queue := cmd.Flags().Arg(0)
		purged, err := app.Control.PurgeQueue(ctx, queue)
		if err != nil {
			return errs.Wrapf(err, "purge queue %q", queue)
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "purged %d message(s) from %s\n", purged, queue); err != nil {
			return errs.Wrap(err, "write purge output")
		}
		return nil
	}),
}

func init() {
	queueCmd.AddCommand(queuePurgeCmd)
}
