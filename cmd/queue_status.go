package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"revpipe/internal/bootstrap"
	"revpipe/internal/bootstrap/logging"
	"revpipe/internal/domain/ingest"
	"revpipe/internal/errs"
)

// queueStatusCmd prints the depth of the given queues, defaulting to the
// work-item queues the fleet drains.
var queueStatusCmd = &cobra.Command{
	Use:   "status [queue...]",
	Short: "Show queue depths",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		queues := cmd.Flags().Args()
		if len(queues) == 0 {
			queues = []string{ingest.QueueParse, ingest.QueueToAnalyze}
		}

		for _, queue := range queues {
			snapshot, err := app.Control.QueueStatus(ctx, queue)
			if err != nil {
				return errs.Wrapf(err, "status of queue %q", queue)
			}

			staleness := ""
			if !snapshot.Live {
				staleness = fmt.Sprintf(" (cached, observed %s)", snapshot.ObservedAt.Format("2006-01-02 15:04:05"))
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %d message(s), %d consumer(s)%s\n",
				snapshot.Queue, snapshot.Status.MessageCount, snapshot.Status.ConsumerCount, staleness); err != nil {
				return errs.Wrap(err, "write status output")
			}
		}
		return nil
	}),
}

func init() {
	queueCmd.AddCommand(queueStatusCmd)
}
