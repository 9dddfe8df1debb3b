package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSV writes trades and run summaries to flat files suitable for export.
type CSV struct {
	trades *csv.Writer
	runs   *csv.Writer
	tf, rf *os.File
}

func NewCSV(tradesPath, runsPath string) (*CSV, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	rf, err := os.Create(runsPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	rw := csv.NewWriter(rf)

	if err := tw.Write(Columns); err != nil {
		return nil, err
	}
	if err := rw.Write([]string{
		"run_id", "instrument", "strategy", "start", "end",
		"initial_capital", "final_capital", "trades", "wins", "losses",
		"net_pnl", "return_pct", "win_rate", "profit_factor", "max_drawdown_pct",
	}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	rw.Flush()
	if err := rw.Error(); err != nil {
		return nil, err
	}

	return &CSV{trades: tw, runs: rw, tf: tf, rf: rf}, nil
}

func (j *CSV) RecordTrade(t TradeRow) error {
	if err := j.trades.Write([]string{
		t.Date.Format("2006-01-02"),
		t.Name,
		f(t.PnL),
		t.Status,
		t.Direction,
		t.TradeType,
		f(t.MaxRMultiple),
		f(t.EntryPrice),
		t.EntryTime.Format(time.RFC3339),
		f(t.ExitPrice),
		t.ExitTime.Format(time.RFC3339),
		f(t.StopLoss),
		f(t.RiskAmount),
	}); err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) RecordRun(r RunSummary) error {
	if err := j.runs.Write([]string{
		r.RunID,
		r.Instrument,
		r.Strategy,
		r.Start.Format(time.RFC3339),
		r.End.Format(time.RFC3339),
		f(r.InitialCapital),
		f(r.FinalCapital),
		strconv.Itoa(r.Trades),
		strconv.Itoa(r.Wins),
		strconv.Itoa(r.Losses),
		f(r.NetPnL),
		f(r.ReturnPct),
		f(r.WinRate),
		f(r.ProfitFactor),
		f(r.MaxDrawdownPct),
	}); err != nil {
		return err
	}
	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSV) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.runs.Flush()
	if err := j.runs.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.rf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
