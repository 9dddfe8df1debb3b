package backtest

import (
	"time"

	"github.com/tradelab/rangebreak/journal"
	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/perf"
	"github.com/tradelab/rangebreak/trade"
)

// EquityPoint is one sample of the account equity curve, taken at the
// close of every processed candle and after every trade exit.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// Result is the outcome of one (instrument, strategy) run.
type Result struct {
	RunID      string
	Instrument market.Instrument
	Strategy   string
	Start      time.Time
	End        time.Time

	InitialCapital float64
	FinalCapital   float64

	Trades []*trade.Trade
	Equity []EquityPoint

	DaysProcessed int
	DaysSkipped   int
	PartialFills  int

	Summary perf.Summary

	// Err is set instead of an error return when the run failed inside a
	// parallel batch; sibling runs are unaffected.
	Err string
}

// EquityValues flattens the curve for drawdown analysis.
func (r *Result) EquityValues() []float64 {
	out := make([]float64, len(r.Equity))
	for i, p := range r.Equity {
		out[i] = p.Equity
	}
	return out
}

// TradeRows converts the closed trades into journal records.
func (r *Result) TradeRows() []journal.TradeRow {
	rows := make([]journal.TradeRow, 0, len(r.Trades))
	for _, t := range r.Trades {
		day := t.EntryTime.Truncate(24 * time.Hour)
		rows = append(rows, journal.TradeRow{
			Date:         day,
			Name:         r.Instrument.Key,
			PnL:          t.RealizedPnL,
			Status:       string(t.Status),
			Direction:    t.Side.String(),
			TradeType:    r.Strategy,
			MaxRMultiple: t.MaxR,
			EntryPrice:   t.EntryPrice,
			EntryTime:    t.EntryTime,
			ExitPrice:    t.ExitPrice,
			ExitTime:     t.ExitTime,
			StopLoss:     t.StopLoss,
			RiskAmount:   t.RiskAmount * t.InitialSize,
		})
	}
	return rows
}

// RunRow converts the result into a run-summary record.
func (r *Result) RunRow() journal.RunSummary {
	return journal.RunSummary{
		RunID:          r.RunID,
		Instrument:     r.Instrument.Key,
		Strategy:       r.Strategy,
		Start:          r.Start,
		End:            r.End,
		InitialCapital: r.InitialCapital,
		FinalCapital:   r.FinalCapital,
		Trades:         r.Summary.TotalTrades,
		Wins:           r.Summary.Wins,
		Losses:         r.Summary.Losses,
		NetPnL:         r.Summary.NetPnL,
		ReturnPct:      r.Summary.ReturnPct,
		WinRate:        r.Summary.WinRate,
		ProfitFactor:   r.Summary.ProfitFactor,
		MaxDrawdownPct: r.Summary.MaxDrawdownPct,
		Created:        time.Now().UTC(),
	}
}
