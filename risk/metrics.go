package risk

import "math"

// Portfolio metrics over realized trade history. All statistics use sample
// variance (ddof=1). Sortino with zero losing trades yields +Inf; this is a
// defined edge case, not an error.

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the sample standard deviation (ddof=1).
// Returns 0 with fewer than two observations.
func StdDev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := Mean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// Sharpe returns the Sharpe ratio of per-trade (or per-period) returns
// against a risk-free rate per period. Returns 0 when deviation is zero.
func Sharpe(returns []float64, riskFree float64) float64 {
	sd := StdDev(returns)
	if sd == 0 {
		return 0
	}
	return (Mean(returns) - riskFree) / sd
}

// Sortino divides excess return by downside deviation only.
// With no negative excess returns the ratio is +Inf.
func Sortino(returns []float64, riskFree float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var downside []float64
	for _, r := range returns {
		if r-riskFree < 0 {
			downside = append(downside, r-riskFree)
		}
	}

	excess := Mean(returns) - riskFree
	if len(downside) == 0 {
		if excess <= 0 {
			return 0
		}
		return math.Inf(1)
	}

	dd := StdDev(downside)
	if dd == 0 {
		if excess <= 0 {
			return 0
		}
		return math.Inf(1)
	}
	return excess / dd
}

// MaxDrawdown returns the largest peak-to-trough decline of an equity
// curve, as a fraction of the peak (0.25 == 25% drawdown).
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}

	peak := equity[0]
	maxDD := 0.0

	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak > 0 {
			dd := (peak - e) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// ProfitFactor is gross profit over gross loss. With zero gross loss it
// returns +Inf when there is any profit, otherwise 0.
func ProfitFactor(pnls []float64) float64 {
	var grossProfit, grossLoss float64
	for _, p := range pnls {
		if p > 0 {
			grossProfit += p
		} else {
			grossLoss += -p
		}
	}

	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

// Expectancy is the mean P&L per trade.
func Expectancy(pnls []float64) float64 {
	return Mean(pnls)
}

// WinRate is the fraction of trades with positive P&L, in [0,1].
func WinRate(pnls []float64) float64 {
	if len(pnls) == 0 {
		return 0
	}
	wins := 0
	for _, p := range pnls {
		if p > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(pnls))
}
