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

// serveCmd runs only the admin HTTP surface, for deployments where the
// consumers run as separate worker processes.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin HTTP server",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))
		logging.Info(ctx, "admin server starting", slog.String("addr", app.Config.Admin.Addr))

		if err := app.Admin.Run(ctx); err != nil {
			return errs.Wrap(err, "run admin server")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
