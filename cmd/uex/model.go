package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spanlab/uex/internal/config"
	"github.com/spanlab/uex/internal/home"
	"github.com/spanlab/uex/internal/scorer"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Manage the scorer container",
	Long: `Manage the pointer-network scorer container lifecycle.

The scorer loads the extraction model and serves the encode/run API that
'uex extract' talks to. Model weights live in ~/.uex/models/ and are
mounted into the container read-only.

Examples:
  uex model up      # Start the scorer container
  uex model down    # Stop the container
  uex model status  # Check container status
  uex model logs    # View container logs`,
}

var modelUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the scorer container",
	Long: `Start the scorer container.

If the container doesn't exist, it will be created and started.
If it exists but is stopped, it will be started.
If it's already running, this is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getScorerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Starting scorer...")
		if err := mgr.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scorer: %w", err)
		}

		fmt.Printf("Scorer is running at %s\n", mgr.URL())
		return nil
	},
}

var modelDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop the scorer container",
	Long: `Stop the scorer container.

The container is preserved. Use 'uex model up' to restart it later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getScorerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Stopping scorer...")
		if err := mgr.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop scorer: %w", err)
		}

		fmt.Println("Scorer stopped")
		return nil
	},
}

var modelStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scorer container status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getScorerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		status, err := mgr.Status(ctx)
		if err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}

		switch status {
		case scorer.StatusRunning:
			fmt.Printf("Status: %s\n", status)
			fmt.Printf("URL: %s\n", mgr.URL())

			if err := mgr.WaitReady(ctx, 2*time.Second); err != nil {
				fmt.Printf("Health: unhealthy (%v)\n", err)
			} else {
				fmt.Println("Health: healthy")
			}
		case scorer.StatusStopped:
			fmt.Printf("Status: %s (use 'uex model up' to start)\n", status)
		case scorer.StatusNotFound:
			fmt.Printf("Status: %s (use 'uex model up' to create)\n", status)
		default:
			fmt.Printf("Status: %s\n", status)
		}

		return nil
	},
}

var modelLogsTail string

var modelLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show scorer container logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getScorerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		logs, err := mgr.Logs(ctx, modelLogsTail)
		if err != nil {
			return fmt.Errorf("failed to get logs: %w", err)
		}

		fmt.Print(logs)
		return nil
	},
}

var modelRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the scorer container",
	Long: `Remove the scorer container.

This stops and removes the container. Model weights in ~/.uex/models/
are NOT deleted - only the container is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getScorerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Removing scorer container...")
		if err := mgr.Remove(ctx); err != nil {
			return fmt.Errorf("failed to remove container: %w", err)
		}

		fmt.Println("Scorer container removed (model weights preserved)")
		return nil
	},
}

var modelWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the scorer to be ready",
	Long: `Wait for the scorer to be ready to accept requests.

Useful in scripts to ensure the model is fully loaded before running
extractions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := getScorerManager()
		if err != nil {
			return err
		}
		defer mgr.Close()

		fmt.Println("Waiting for scorer...")
		if err := mgr.WaitReady(ctx, 120*time.Second); err != nil {
			return fmt.Errorf("scorer did not become ready: %w", err)
		}

		fmt.Println("Scorer is ready")
		return nil
	},
}

// getScorerManager builds the Docker manager from config and home layout.
func getScorerManager() (*scorer.Manager, error) {
	h, err := getHome()
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}

	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}

	return scorer.NewManager(scorerConfig(cfg, h))
}

func scorerConfig(cfg *config.Config, h *home.Dir) scorer.Config {
	modelPath := cfg.Scorer.Container.ModelPath
	if modelPath == "" {
		modelPath = h.ModelsPath()
	}
	return scorer.Config{
		ContainerName: cfg.Scorer.Container.Name,
		Image:         cfg.Scorer.Container.Image,
		ModelPath:     modelPath,
		HostPort:      cfg.Scorer.Container.Port,
	}
}

func init() {
	modelLogsCmd.Flags().StringVar(&modelLogsTail, "tail", "100", "number of log lines to show")

	modelCmd.AddCommand(modelUpCmd)
	modelCmd.AddCommand(modelDownCmd)
	modelCmd.AddCommand(modelStatusCmd)
	modelCmd.AddCommand(modelLogsCmd)
	modelCmd.AddCommand(modelRemoveCmd)
	modelCmd.AddCommand(modelWaitCmd)
	rootCmd.AddCommand(modelCmd)
}
