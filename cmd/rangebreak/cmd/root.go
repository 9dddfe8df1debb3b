package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tradelab/rangebreak/config"
)

var rootCmd = &cobra.Command{
	Use:   "rangebreak",
	Short: "Morning-range breakout backtesting and signal research",
	Long: `Rangebreak backtests intraday morning-range breakout strategies.

It provides tools for:
  - Backtesting four entry-strategy variants against historical candles
  - Validating morning ranges with ATR-based quality scoring
  - Staged take-profit ladders with breakeven and trailing stops
  - Risk-policy enforcement and position sizing
  - Trade journaling to CSV, SQLite or Postgres
  - An HTTP API for running backtests remotely`,
}

var cfgPath string

// Execute runs the root command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "f", "", "path to config file (YAML or JSON)")
}

// setup loads the config and builds the logger shared by subcommands.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := cfg.BuildLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}
