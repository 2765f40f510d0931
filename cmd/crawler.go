package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"revpipe/internal/bootstrap"
	"revpipe/internal/bootstrap/logging"
	"revpipe/internal/errs"
)

var crawlerCmd = &cobra.Command{
	Use:   "crawler",
	Short: "Steer the crawler fleet",
}

var crawlerSetCmd = &cobra.Command{
	Use:   "set <url>",
	Short: "Point every crawler at a category URL",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		url := cmd.Flags().Arg(0)
		if err := app.Control.SetCrawlTarget(ctx, url); err != nil {
			return errs.Wrap(err, "set crawl target")
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "crawl target set: %s\n", url); err != nil {
			return errs.Wrap(err, "write crawler output")
		}
		return nil
	}),
}

var crawlerCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Stop every crawler",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := app.Control.CancelCrawl(ctx); err != nil {
			return errs.Wrap(err, "cancel crawl")
		}

		if _, err := fmt.Fprintln(cmd.OutOrStdout(), "crawl cancelled"); err != nil {
			return errs.Wrap(err, "write crawler output")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(crawlerCmd)
	crawlerCmd.AddCommand(crawlerSetCmd)
	crawlerCmd.AddCommand(crawlerCancelCmd)
}
