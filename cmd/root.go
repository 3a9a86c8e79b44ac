// Package cmd defines and implements the CLI commands for the votd-archive executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "votd-archive",
		Short: "Maintains a chronological catalog of Tableau Public's Viz of the Day.",
		Long: `votd-archive scrapes the Tableau Public viz-of-the-day discovery feed,
persists entry metadata to a tabular record store, and keeps normalized
preview PNGs in two managed image roots.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus VOTD_* env vars)")

	cmd.AddCommand(newUpdateCmd())
	cmd.AddCommand(newResyncCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
