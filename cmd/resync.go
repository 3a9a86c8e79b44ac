package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dashwatch/votd-archive/internal/app"
	"github.com/dashwatch/votd-archive/internal/config"
)

// newResyncCmd creates the 'resync' subcommand: the bulk rebuild run.
func newResyncCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "resync",
		Short: "Rebuild the catalog and image roots from the feed",
		Long: `Fetches up to the configured number of entries from the discovery feed,
wipes both image roots, re-downloads every preview, and rewrites the full
dataset newest-first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if limit > 0 {
				cfg.Resync.Limit = limit
			}

			application, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			defer application.Close()

			summary, err := application.RunResync(cmd.Context())
			if err != nil {
				return fmt.Errorf("run resync: %w", err)
			}

			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries to fetch (overrides resync.limit)")
	return cmd
}

func printSummary(cmd *cobra.Command, s app.Summary) {
	if s.UpToDate {
		cmd.Println("Already up to date.")
		return
	}
	cmd.Printf("Fetched %d entries: %d images downloaded, %d failed, %d records persisted.\n",
		s.Fetched, s.ImagesSucceeded, s.ImagesFailed, s.RecordsSaved)
}
