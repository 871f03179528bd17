package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/bestiary/internal/output"
	"github.com/jackzampolin/bestiary/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool

	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "bestiary",
	Short: "Monster region enrichment with LLM classification",
	Long: `Bestiary enriches a collection of monster records stored in DefraDB
with a region tag chosen by a language model from a fixed set of
reference regions.

Typical workflow:
  bestiary defra start     # Start the record store
  bestiary schema init     # Create the Monster collection
  bestiary import          # Load monsters from the dnd5e API
  bestiary enrich          # Classify every unclassified monster`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.bestiary/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "bestiary home directory (default: ~/.bestiary)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	// Environment and logging are ready before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		output.SetFormat(outputFormat)

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)
	}

	rootCmd.AddCommand(versionCmd)
}
