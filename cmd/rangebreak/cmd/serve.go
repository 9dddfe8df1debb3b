package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradelab/rangebreak/backtest"
	"github.com/tradelab/rangebreak/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the backtest API over HTTP",
	Long: `Start the HTTP API.

Endpoints:
  GET  /health
  POST /api/v1/backtests           run one instrument
  POST /api/v1/backtests/parallel  run a batch concurrently

Example:
  rangebreak serve -f config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	engineCfg, err := cfg.BuildEngine()
	if err != nil {
		return err
	}
	src, err := cfg.BuildFeed(logger)
	if err != nil {
		return fmt.Errorf("build feed: %w", err)
	}
	sink, err := cfg.BuildSink(logger)
	if err != nil {
		return fmt.Errorf("build journal: %w", err)
	}
	defer sink.Close()

	runner, err := backtest.NewRunner(engineCfg, src, sink, logger)
	if err != nil {
		return err
	}

	return server.New(runner, cfg.Server.Addr, cfg.Server.Mode, logger).Run()
}
