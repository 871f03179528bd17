package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bestiary/internal/classify"
	"github.com/jackzampolin/bestiary/internal/config"
	"github.com/jackzampolin/bestiary/internal/enrich"
	"github.com/jackzampolin/bestiary/internal/output"
	classifyprompt "github.com/jackzampolin/bestiary/internal/prompts/classify"
	"github.com/jackzampolin/bestiary/internal/providers"
)

var (
	enrichProvider    string
	enrichRegions     string
	enrichDelay       time.Duration
	enrichWatchConfig bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Classify unclassified monsters into regions",
	Long: `Scan every monster in the store and ask the configured model to pick a
region for each one still marked with the sentinel region.

Records that already carry a region are skipped, so the command can be
re-run safely after an interruption. Classification calls are paced by
enrich.delay. Per-record failures are reported and do not stop the run.

Examples:
  bestiary enrich                          # Use the default provider
  bestiary enrich --provider gemini        # Use a specific provider
  bestiary enrich --delay 5s               # Shorter pacing
  bestiary enrich --watch-config           # Pick up delay changes while running`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		_, mgr, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()

		pc, err := cfg.ToProviderConfig(enrichProvider)
		if err != nil {
			return err
		}
		client, err := providers.NewClient(ctx, pc)
		if err != nil {
			return err
		}

		classifier := classify.New(client, classify.Options{
			MaxTokens:   cfg.Enrich.MaxTokens,
			Temperature: classify.Float(cfg.Enrich.Temperature),
			Timeout:     cfg.Enrich.RequestTimeout,
			Schema:      classifyprompt.ResponseSchema,
		})

		runCfg := enrich.Config{
			RegionsFile: cfg.Enrich.RegionsFile,
			Delay:       cfg.Enrich.Delay,
			Sentinel:    cfg.Enrich.Sentinel,
		}
		if enrichRegions != "" {
			runCfg.RegionsFile = enrichRegions
		}
		if cmd.Flags().Changed("delay") {
			runCfg.Delay = enrichDelay
		}

		store := getStore(cfg)
		runner := enrich.New(runCfg, store, classifier, store, logger)

		if enrichWatchConfig {
			mgr.OnChange(func(c *config.Config) {
				runner.SetDelay(c.Enrich.Delay)
			})
			mgr.WatchConfig()
		}

		logger.Info("starting enrichment", "provider", client.Name(), "model", client.Model(), "regions", runCfg.RegionsFile, "delay", runCfg.Delay)
		report, err := runner.Run(ctx)
		if report != nil {
			logger.Info("enrichment finished",
				"classified", report.Classified,
				"skipped", report.Skipped,
				"failed", report.Failed,
				"duration", report.Duration())
			if perr := output.Print(report); perr != nil {
				return perr
			}
		}
		return err
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichProvider, "provider", "", "LLM provider name (default: defaults.llm_provider)")
	enrichCmd.Flags().StringVar(&enrichRegions, "regions", "", "regions reference file (default: enrich.regions_file)")
	enrichCmd.Flags().DurationVar(&enrichDelay, "delay", 0, "minimum time between classification calls (default: enrich.delay)")
	enrichCmd.Flags().BoolVar(&enrichWatchConfig, "watch-config", false, "reload enrich.delay when the config file changes")

	rootCmd.AddCommand(enrichCmd)
}
