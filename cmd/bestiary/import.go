package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/bestiary/internal/dnd5e"
	"github.com/jackzampolin/bestiary/internal/output"
)

var (
	importEndpoint string
	importLimit    int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import monsters from the dnd5e API",
	Long: `Fetch monsters from the dnd5e GraphQL API and store every one whose
name is not already present. Imported monsters start with the sentinel
region. Existing records are left untouched, so re-importing never resets
a region that enrich has already set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		_, mgr, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()

		endpoint := cfg.Import.Endpoint
		if cmd.Flags().Changed("endpoint") {
			endpoint = importEndpoint
		}
		opts := dnd5e.ImportOptions{
			Limit:     cfg.Import.Limit,
			BatchSize: cfg.Import.BatchSize,
			Sentinel:  cfg.Enrich.Sentinel,
		}
		if cmd.Flags().Changed("limit") {
			opts.Limit = importLimit
		}

		summary, err := dnd5e.Import(ctx, dnd5e.NewClient(endpoint), getStore(cfg), opts, logger)
		if summary != nil {
			if perr := output.Print(summary); perr != nil {
				return perr
			}
		}
		return err
	},
}

func init() {
	importCmd.Flags().StringVar(&importEndpoint, "endpoint", "", "dnd5e GraphQL endpoint (default: import.endpoint)")
	importCmd.Flags().IntVar(&importLimit, "limit", 0, "maximum monsters to fetch (default: import.limit)")

	rootCmd.AddCommand(importCmd)
}
