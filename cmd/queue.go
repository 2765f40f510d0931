package cmd

import (
	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and feed the pipeline queues",
}

func init() {
	rootCmd.AddCommand(queueCmd)
}
