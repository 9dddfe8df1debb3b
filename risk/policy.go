package risk

import "fmt"

// Policy holds the risk ceilings a proposed position is validated against.
// All percentages are expressed as 0-100.
type Policy struct {
	MaxTradeRiskPct      float64 // per-trade risk as % of equity
	MaxPositionPct       float64 // position value as % of equity
	MaxDailyRiskPct      float64 // cumulative risk across the day's trades
	MaxCorrelatedRiskPct float64 // risk across correlated instruments
	MaxOpenTrades        int
}

// DefaultPolicy mirrors a conservative intraday book.
func DefaultPolicy() Policy {
	return Policy{
		MaxTradeRiskPct:      1.0,
		MaxPositionPct:       25.0,
		MaxDailyRiskPct:      3.0,
		MaxCorrelatedRiskPct: 2.0,
		MaxOpenTrades:        3,
	}
}

// Validate fails fast on malformed configuration.
func (p Policy) Validate() error {
	if p.MaxTradeRiskPct <= 0 || p.MaxTradeRiskPct > 100 {
		return fmt.Errorf("risk: max trade risk pct out of range: %v", p.MaxTradeRiskPct)
	}
	if p.MaxPositionPct <= 0 || p.MaxPositionPct > 100 {
		return fmt.Errorf("risk: max position pct out of range: %v", p.MaxPositionPct)
	}
	if p.MaxDailyRiskPct <= 0 || p.MaxDailyRiskPct > 100 {
		return fmt.Errorf("risk: max daily risk pct out of range: %v", p.MaxDailyRiskPct)
	}
	if p.MaxCorrelatedRiskPct < 0 || p.MaxCorrelatedRiskPct > 100 {
		return fmt.Errorf("risk: max correlated risk pct out of range: %v", p.MaxCorrelatedRiskPct)
	}
	if p.MaxOpenTrades <= 0 {
		return fmt.Errorf("risk: max open trades must be positive: %d", p.MaxOpenTrades)
	}
	return nil
}
