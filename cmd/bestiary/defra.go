package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/bestiary/internal/config"
	"github.com/jackzampolin/bestiary/internal/defra"
	"github.com/jackzampolin/bestiary/internal/output"
	"github.com/jackzampolin/bestiary/internal/schema"
)

var defraCmd = &cobra.Command{
	Use:   "defra",
	Short: "Manage the local DefraDB record store",
	Long: `Manage the DefraDB node that stores the monster records.

The node runs in a Docker container with data under ~/.bestiary/defradb/.

Examples:
  bestiary defra start   # Start the node and apply the Monster schema
  bestiary defra status  # Container, health and regions file
  bestiary defra stop    # Stop the node (data preserved)`,
}

// nodeView is the printable state of the record store setup.
type nodeView struct {
	Status      defra.ContainerStatus `json:"status" yaml:"status"`
	URL         string                `json:"url,omitempty" yaml:"url,omitempty"`
	Health      string                `json:"health,omitempty" yaml:"health,omitempty"`
	RegionsFile string                `json:"regions_file" yaml:"regions_file"`
	Regions     string                `json:"regions" yaml:"regions"`
}

var defraStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start DefraDB and apply the Monster schema",
	Long: `Start the DefraDB node, creating the container on first use, wait for
it to answer, and apply the Monster collection schema. Running it again
is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		node, cfg, err := getNode()
		if err != nil {
			return err
		}
		defer node.Close()

		logger.Info("starting DefraDB", "url", node.URL())
		if err := node.Start(ctx); err != nil {
			return fmt.Errorf("failed to start DefraDB: %w", err)
		}
		if err := schema.Initialize(ctx, node.Client(), logger); err != nil {
			return err
		}

		view := nodeView{Status: defra.StatusRunning, URL: node.URL(), Health: "healthy"}
		describeRegions(&view, cfg)
		if view.Regions == "missing" {
			logger.Warn("regions file not found; enrich needs it", "path", view.RegionsFile)
		}
		return output.Print(view)
	},
}

var defraStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop DefraDB (data preserved)",
	RunE: func(cmd *cobra.Command, args []string) error {
		node, _, err := getNode()
		if err != nil {
			return err
		}
		defer node.Close()

		if err := node.Stop(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("DefraDB stopped")
		return nil
	},
}

var defraStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show DefraDB and regions file status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		node, cfg, err := getNode()
		if err != nil {
			return err
		}
		defer node.Close()

		status, err := node.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}

		view := nodeView{Status: status}
		if status == defra.StatusRunning {
			view.URL = node.URL()
			view.Health = "healthy"
			if err := node.Client().HealthCheck(ctx); err != nil {
				view.Health = fmt.Sprintf("unhealthy (%v)", err)
			}
		}
		describeRegions(&view, cfg)
		return output.Print(view)
	},
}

var defraWaitTimeout time.Duration

var defraWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for DefraDB to be ready",
	RunE: func(cmd *cobra.Command, args []string) error {
		node, _, err := getNode()
		if err != nil {
			return err
		}
		defer node.Close()

		if err := node.WaitReady(cmd.Context(), defraWaitTimeout); err != nil {
			return err
		}
		fmt.Println("DefraDB is ready")
		return nil
	},
}

func init() {
	defraCmd.AddCommand(defraStartCmd)
	defraCmd.AddCommand(defraStopCmd)
	defraCmd.AddCommand(defraStatusCmd)
	defraCmd.AddCommand(defraWaitCmd)

	defraWaitCmd.Flags().DurationVar(&defraWaitTimeout, "timeout", 30*time.Second, "how long to wait")

	rootCmd.AddCommand(defraCmd)
}

// getNode builds the DefraDB node from the defra config section.
func getNode() (*defra.Node, *config.Config, error) {
	h, mgr, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	cfg := mgr.Get()

	node, err := defra.NewNode(defra.NodeSpec{
		Name:     cfg.Defra.ContainerName,
		Image:    cfg.Defra.Image,
		DataPath: h.DefraPath(),
		Port:     cfg.Defra.Port,
	})
	if err != nil {
		return nil, nil, err
	}
	return node, cfg, nil
}

func describeRegions(view *nodeView, cfg *config.Config) {
	view.RegionsFile = cfg.Enrich.RegionsFile
	view.Regions = "present"
	if _, err := os.Stat(cfg.Enrich.RegionsFile); err != nil {
		view.Regions = "missing"
	}
}
