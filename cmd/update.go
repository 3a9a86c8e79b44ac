package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dashwatch/votd-archive/internal/app"
	"github.com/dashwatch/votd-archive/internal/config"
)

// newUpdateCmd creates the 'update' subcommand: the incremental
// check-for-today run.
func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Fetch the newest entry and merge it into the catalog",
		Long: `Fetches the single most recent viz-of-the-day entry, merges one row
into the record store, and downloads one normalized preview image. A no-op
when today's entry is already present.`,
		RunE: runUpdateCommand,
	}
	return cmd
}

func runUpdateCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	application, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("initialize application services: %w", err)
	}
	defer application.Close()

	summary, err := application.RunUpdate(cmd.Context())
	if err != nil {
		return fmt.Errorf("run update: %w", err)
	}

	printSummary(cmd, summary)
	return nil
}
