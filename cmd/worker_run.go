package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"revpipe/internal/bootstrap"
	"revpipe/internal/bootstrap/logging"
	"revpipe/internal/errs"
)

// workerRunCmd runs both consumers and the admin server in one process, the
// deployment shape for small installations.
var workerRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run both consumers and the admin server",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ctx, cancel := context.WithCancel(logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath())))
		defer cancel()

		logging.Info(ctx, "worker starting",
			slog.String("reviews_queue", app.Reviews.Queue()),
			slog.String("reports_queue", app.Reports.Queue()),
			slog.String("admin_addr", app.Config.Admin.Addr),
		)

		errCh := make(chan error, 3)
		go func() { errCh <- errs.Wrap(app.Reviews.Run(ctx), "review consumer") }()
		go func() { errCh <- errs.Wrap(app.Reports.Run(ctx), "report consumer") }()
		go func() { errCh <- errs.Wrap(app.Admin.Run(ctx), "admin server") }()

		// First failure stops the process; the other goroutines drain on
		// context cancellation.
		var firstErr error
		for i := 0; i < 3; i++ {
			err := <-errCh
			if err != nil && firstErr == nil {
				firstErr = err
				cancel()
			}
		}
		return firstErr
	}),
}

func init() {
	workerCmd.AddCommand(workerRunCmd)
}
