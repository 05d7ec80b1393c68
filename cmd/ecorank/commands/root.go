package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/ecorank/backend/pkg/config"
	"github.com/wonny/ecorank/backend/pkg/logger"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ecorank",
	Short: "Sustainable supplier recommendation dashboard",
	Long: `ecorank CLI

Fetches ranked suppliers from the recommendation API, filters them and
renders cards, charts and the sustainability analysis.

Usage:
  go run ./cmd/ecorank [command]

Examples:
  go run ./cmd/ecorank serve
  go run ./cmd/ecorank source --port 5000
  go run ./cmd/ecorank snapshot --min-score 60 --transport electric
  go run ./cmd/ecorank check-db`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// bootstrap loads config, applies the global flags and builds the logger
func bootstrap(logOutput io.Writer) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if logOutput == nil {
		logOutput = os.Stdout
	}

	return cfg, logger.NewWithWriter(cfg, logOutput), nil
}
