package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradelab/rangebreak/backtest"
	"github.com/tradelab/rangebreak/perf"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Backtest the configured instruments over a date window",
	Long: `Run backtests for every instrument in the config file.

A single instrument runs inline; multiple instruments run concurrently
with one engine each. Closed trades and the run summary are persisted to
the configured journal.

Example:
  rangebreak run -f config.yaml --from 2024-01-01 --to 2024-07-01`,
	RunE: runRun,
}

var (
	runFrom string
	runTo   string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFrom, "from", "", "window start, YYYY-MM-DD (required)")
	runCmd.Flags().StringVar(&runTo, "to", "", "window end, YYYY-MM-DD (required)")
	runCmd.MarkFlagRequired("from")
	runCmd.MarkFlagRequired("to")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	from, err := time.Parse("2006-01-02", runFrom)
	if err != nil {
		return fmt.Errorf("parse --from: %w", err)
	}
	to, err := time.Parse("2006-01-02", runTo)
	if err != nil {
		return fmt.Errorf("parse --to: %w", err)
	}

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

	instruments, err := cfg.BuildInstruments()
	if err != nil {
		return err
	}

	timeframe := fmt.Sprintf("%dm", cfg.Backtest.TimeframeMinutes)
	ctx := context.Background()

	if len(instruments) == 1 {
		result, err := runner.RunSingle(ctx, instruments[0], timeframe, from, to)
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	}

	results := runner.RunParallel(ctx, instruments, timeframe, from, to)
	failed := 0
	for _, inst := range instruments {
		result := results[inst.Key]
		if result == nil {
			continue
		}
		if result.Err != "" {
			failed++
			fmt.Printf("%s: FAILED: %s\n\n", inst.Key, result.Err)
			continue
		}
		printResult(result)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(instruments))
	}
	return nil
}

func printResult(r *backtest.Result) {
	s := r.Summary
	fmt.Printf("%s (%s)\n", r.Instrument.Key, r.Strategy)
	fmt.Printf("  Days: %d processed, %d skipped on invalid range\n", r.DaysProcessed, r.DaysSkipped)
	fmt.Printf("  Trades: %d (W %d / L %d, win rate %.1f%%)\n",
		s.TotalTrades, s.Wins, s.Losses, s.WinRate*100)
	fmt.Printf("  Net P&L: %.2f (%.2f%%)  Max DD: %.2f%%\n",
		s.NetPnL, s.ReturnPct, s.MaxDrawdownPct)
	fmt.Printf("  Expectancy: %.2f  Profit factor: %.2f  Best: %.1fR\n",
		s.Expectancy, s.ProfitFactor, s.BestR)
	for _, rec := range perf.Recommendations(s) {
		fmt.Printf("  - %s\n", rec)
	}
	fmt.Println()
}
