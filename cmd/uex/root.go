package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spanlab/uex/internal/cliout"
	"github.com/spanlab/uex/internal/config"
	"github.com/spanlab/uex/internal/home"
	"github.com/spanlab/uex/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "uex",
	Short: "Universal information extraction over a pointer-network scorer",
	Long: `uex extracts text spans from sentences with a single-prompt
pointer-network model, driven either by raw prompts or by a declarative
extraction schema.

Supported schema shapes:
  - Flat (NER-style): a list of attribute names
  - Cascaded: keys whose extracted instances drive a second round of
    attribute extraction (relations, events)

The model runs in a local scorer container ('uex model up') or behind a
remote endpoint; a hosted chat model can serve as a fallback backend.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.uex/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "uex home directory (default: ~/.uex)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	// Set output format and log level before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := cliout.SetFormat(outputFormat); err != nil {
			return err
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	}

	rootCmd.AddCommand(versionCmd)
}

func getHome() (*home.Dir, error) {
	return home.New(homeDir)
}

func getConfig() (*config.Config, error) {
	mgr, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	return mgr.Get(), nil
}
