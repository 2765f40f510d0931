package cmd

import (
	"bufio"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"revpipe/internal/bootstrap"
	"revpipe/internal/bootstrap/logging"
	"revpipe/internal/errs"
)

// queueSubmitCmd publishes scrape work items for product URLs given as
// arguments, or read from stdin one per line when no arguments are given.
var queueSubmitCmd = &cobra.Command{
	Use:   "submit [url...]",
	Short: "Submit product URLs to the parse queue",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		lines := cmd.Flags().Args()
		if len(lines) == 0 {
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				return errs.Wrap(err, "read product urls from stdin")
			}
		}

		submitted, err := app.Control.SubmitProductLines(ctx, lines)
		if err != nil {
			return errs.Wrap(err, "submit products")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "submitted %d product(s)\n", submitted); err != nil {
			return errs.Wrap(err, "write submit output")
		}
		return nil
	}),
}

func init() {
	queueCmd.AddCommand(queueSubmitCmd)
}
