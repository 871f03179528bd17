package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bestiary/internal/output"
	classifyprompt "github.com/jackzampolin/bestiary/internal/prompts/classify"
	"github.com/jackzampolin/bestiary/internal/providers"
)

type pingResult struct {
	Provider string `json:"provider" yaml:"provider"`
	Model    string `json:"model" yaml:"model"`
	Reply    string `json:"reply" yaml:"reply"`
	Latency  string `json:"latency" yaml:"latency"`
}

var pingProvider string

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check connectivity to the configured model",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		_, mgr, err := loadConfig()
		if err != nil {
			return err
		}

		pc, err := mgr.Get().ToProviderConfig(pingProvider)
		if err != nil {
			return err
		}
		client, err := providers.NewClient(ctx, pc)
		if err != nil {
			return err
		}

		resp, err := client.Chat(ctx, &providers.ChatRequest{
			Messages:  []providers.Message{providers.UserMessage(classifyprompt.PingPrompt)},
			MaxTokens: 10,
		})
		if err != nil {
			return fmt.Errorf("ping %s failed: %w", pc.Name, err)
		}

		model := resp.ModelUsed
		if model == "" {
			model = client.Model()
		}
		return output.Print(pingResult{
			Provider: pc.Name,
			Model:    model,
			Reply:    strings.TrimSpace(resp.Content),
			Latency:  resp.ExecutionTime.String(),
		})
	},
}

func init() {
	pingCmd.Flags().StringVar(&pingProvider, "provider", "", "LLM provider name (default: defaults.llm_provider)")

	rootCmd.AddCommand(pingCmd)
}
