package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "deliverypro",
	Short:        "DeliveryPro delivery backend",
	Long:         `Multi-tenant delivery backend: storefronts, orders, drivers and reports.`,
	SilenceUsage: true,
}

// Execute runs the command line. Without a subcommand it prints help.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
