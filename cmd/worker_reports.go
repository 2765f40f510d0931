package cmd

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"revpipe/internal/bootstrap"
	"revpipe/internal/bootstrap/logging"
	"revpipe/internal/errs"
)

var workerReportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Consume the reports queue",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))
		logging.Info(ctx, "report consumer starting", slog.String("queue", app.Reports.Queue()))

		if err := app.Reports.Run(ctx); err != nil {
			return errs.Wrap(err, "run report consumer")
		}
		return nil
	}),
}

func init() {
	workerCmd.AddCommand(workerReportsCmd)
}
