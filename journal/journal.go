// Package journal persists closed-trade records and run summaries.
// Sinks append or upsert by (date, name, direction); nothing is deleted.
package journal

import "time"

// TradeRow is the de-normalized closed-trade record. The column set is
// stable across runs and maps 1:1 onto the CSV export.
type TradeRow struct {
	Date         time.Time `db:"date" json:"date"`
	Name         string    `db:"name" json:"name"`
	PnL          float64   `db:"pnl" json:"pnl"`
	Status       string    `db:"status" json:"status"`
	Direction    string    `db:"direction" json:"direction"`
	TradeType    string    `db:"trade_type" json:"trade_type"`
	MaxRMultiple float64   `db:"max_r_multiple" json:"max_r_multiple"`
	EntryPrice   float64   `db:"entry_price" json:"entry_price"`
	EntryTime    time.Time `db:"entry_time" json:"entry_time"`
	ExitPrice    float64   `db:"exit_price" json:"exit_price"`
	ExitTime     time.Time `db:"exit_time" json:"exit_time"`
	StopLoss     float64   `db:"stop_loss" json:"stop_loss"`
	RiskAmount   float64   `db:"risk_amount" json:"risk_amount"`
}

// Columns is the stable export column order.
var Columns = []string{
	"date", "name", "pnl", "status", "direction", "trade_type",
	"max_r_multiple", "entry_price", "entry_time", "exit_price",
	"exit_time", "stop_loss", "risk_amount",
}

// RunSummary aggregates one backtest run for persistence.
type RunSummary struct {
	RunID          string    `db:"run_id" json:"run_id"`
	Instrument     string    `db:"instrument" json:"instrument"`
	Strategy       string    `db:"strategy" json:"strategy"`
	Start          time.Time `db:"start" json:"start"`
	End            time.Time `db:"end" json:"end"`
	InitialCapital float64   `db:"initial_capital" json:"initial_capital"`
	FinalCapital   float64   `db:"final_capital" json:"final_capital"`
	Trades         int       `db:"trades" json:"trades"`
	Wins           int       `db:"wins" json:"wins"`
	Losses         int       `db:"losses" json:"losses"`
	NetPnL         float64   `db:"net_pnl" json:"net_pnl"`
	ReturnPct      float64   `db:"return_pct" json:"return_pct"`
	WinRate        float64   `db:"win_rate" json:"win_rate"`
	ProfitFactor   float64   `db:"profit_factor" json:"profit_factor"`
	MaxDrawdownPct float64   `db:"max_drawdown_pct" json:"max_drawdown_pct"`
	Created        time.Time `db:"created" json:"created"`
}

// TradeSink receives closed trades and run summaries.
type TradeSink interface {
	RecordTrade(TradeRow) error
	RecordRun(RunSummary) error
	Close() error
}

// Discard is a no-op sink for runs that don't persist anything.
type Discard struct{}

func (Discard) RecordTrade(TradeRow) error { return nil }
func (Discard) RecordRun(RunSummary) error { return nil }
func (Discard) Close() error               { return nil }

// Tee fans records out to every sink. The first error stops the fan-out;
// Close is attempted on all sinks regardless.
func Tee(sinks ...TradeSink) TradeSink {
	return tee(sinks)
}

type tee []TradeSink

func (t tee) RecordTrade(row TradeRow) error {
	for _, s := range t {
		if err := s.RecordTrade(row); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) RecordRun(run RunSummary) error {
	for _, s := range t {
		if err := s.RecordRun(run); err != nil {
			return err
		}
	}
	return nil
}

func (t tee) Close() error {
	var first error
	for _, s := range t {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
