package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradelab/rangebreak/journal"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print journaled trades closed in a date window",
	Long: `Read the SQLite journal and print the trades closed in a window.

Example:
  rangebreak report -f config.yaml --from 2024-01-01 --to 2024-02-01`,
	RunE: runReport,
}

var (
	reportFrom string
	reportTo   string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportFrom, "from", "", "window start, YYYY-MM-DD (required)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "window end, YYYY-MM-DD (required)")
	reportCmd.MarkFlagRequired("from")
	reportCmd.MarkFlagRequired("to")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Journal.Type != "sqlite" {
		return fmt.Errorf("report requires journal.type=sqlite, got %q", cfg.Journal.Type)
	}

	from, err := time.Parse("2006-01-02", reportFrom)
	if err != nil {
		return fmt.Errorf("parse --from: %w", err)
	}
	to, err := time.Parse("2006-01-02", reportTo)
	if err != nil {
		return fmt.Errorf("parse --to: %w", err)
	}

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	trades, err := j.ListTradesClosedBetween(from, to)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	if len(trades) == 0 {
		fmt.Println("No trades in window.")
		return nil
	}

	fmt.Printf("%-12s %-10s %-6s %-16s %10s %8s %10s\n",
		"DATE", "NAME", "DIR", "TYPE", "PNL", "MAX R", "STATUS")
	total := 0.0
	for _, t := range trades {
		fmt.Printf("%-12s %-10s %-6s %-16s %10.2f %8.2f %10s\n",
			t.Date.Format("2006-01-02"), t.Name, t.Direction, t.TradeType,
			t.PnL, t.MaxRMultiple, t.Status)
		total += t.PnL
	}
	fmt.Printf("\n%d trades, net P&L %.2f\n", len(trades), total)
	return nil
}
