package main

import (
	"os"

	"UMKMForecast/pkg/logger"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "umkmctl",
		Short: "umkmctl - demand forecast and financial impact reports",
		Long: `umkmctl renders the financial impact of a trained demand forecast.

It either analyzes a saved training result offline, or uploads a sales CSV
to the forecasting backend, trains it, and prints the resulting report.`,
		Version:      version,
		SilenceUsage: true,
	}

	debug := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := "warn"
		if *debug {
			level = "debug"
		}
		cliLogger = logger.NewWithWriter(os.Stderr, level)
	}

	cmd.AddCommand(newAnalyzeCommand())
	cmd.AddCommand(newRunCommand())

	return cmd
}

var cliLogger = logger.Nop()
