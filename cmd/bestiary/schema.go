package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bestiary/internal/defra"
	"github.com/jackzampolin/bestiary/internal/schema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Manage the record store schema",
}

var schemaInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Apply the Monster collection schema to DefraDB",
	Long: `Apply every embedded schema to DefraDB.

Safe to run repeatedly; collections that already exist are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		_, mgr, err := loadConfig()
		if err != nil {
			return err
		}

		client := defra.NewClient(mgr.Get().Defra.URL)
		if err := client.HealthCheck(ctx); err != nil {
			return fmt.Errorf("DefraDB not reachable at %s (try 'bestiary defra start'): %w", client.URL(), err)
		}

		if err := schema.Initialize(ctx, client, logger); err != nil {
			return err
		}
		fmt.Println("Schema initialized")
		return nil
	},
}

func init() {
	schemaCmd.AddCommand(schemaInitCmd)
	rootCmd.AddCommand(schemaCmd)
}
