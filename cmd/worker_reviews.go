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

var workerReviewsCmd = &cobra.Command{
	Use:   "reviews",
	Short: "Consume the parsed_reviews queue",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))
		logging.Info(ctx, "review consumer starting", slog.String("queue", app.Reviews.Queue()))

		if err := app.Reviews.Run(ctx); err != nil {
			return errs.Wrap(err, "run review consumer")
		}
		return nil
	}),
}

func init() {
	workerCmd.AddCommand(workerReviewsCmd)
}
