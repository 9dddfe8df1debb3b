package risk

import "github.com/tradelab/rangebreak/market"

// RMultiple returns the reward measured in units of initial risk, signed by
// trade outcome. Returns 0.0 on a degenerate stop (risk <= 0) rather than
// dividing by zero.
func RMultiple(entry, exit, stop float64, side market.Side) float64 {
	var reward, riskPerUnit float64

	switch side {
	case market.Long:
		reward = exit - entry
		riskPerUnit = entry - stop
	case market.Short:
		reward = entry - exit
		riskPerUnit = stop - entry
	}

	if riskPerUnit <= 0 {
		return 0.0
	}
	return reward / riskPerUnit
}

// RR returns the planned reward/risk ratio for an entry/stop/target triple.
// Returns 0.0 when the stop is degenerate.
func RR(entry, stop, target float64, side market.Side) float64 {
	return RMultiple(entry, target, stop, side)
}

// AmountAtRisk is the account-currency loss if the stop is hit.
func AmountAtRisk(size, entry, stop float64) float64 {
	d := entry - stop
	if d < 0 {
		d = -d
	}
	return size * d
}

// Pct expresses amount as a percentage of equity. Returns 0 on zero equity.
func Pct(amount, equity float64) float64 {
	if equity <= 0 {
		return 0
	}
	return amount / equity * 100
}
