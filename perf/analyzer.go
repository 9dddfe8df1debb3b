// Package perf aggregates closed-trade lists into summary statistics and
// plain-language recommendations.
package perf

import (
	"fmt"
	"math"

	"github.com/tradelab/rangebreak/risk"
	"github.com/tradelab/rangebreak/trade"
)

// Summary is the aggregate view of one run's trade list.
type Summary struct {
	TotalTrades int
	Wins        int
	Losses      int
	WinRate     float64 // 0-1

	NetPnL    float64
	ReturnPct float64
	AvgWin    float64
	AvgLoss   float64
	BestR     float64

	Expectancy     float64
	ProfitFactor   float64
	SharpeRatio    float64
	SortinoRatio   float64
	MaxDrawdownPct float64

	ByStatus map[trade.Status]int
}

// Analyze computes the summary for a closed-trade list. The equity curve,
// when provided, drives max drawdown; otherwise drawdown is derived from
// cumulative P&L over initial capital.
func Analyze(trades []*trade.Trade, initialCapital float64, equity []float64) Summary {
	s := Summary{ByStatus: make(map[trade.Status]int)}

	pnls := make([]float64, 0, len(trades))
	returns := make([]float64, 0, len(trades))
	var winSum, lossSum float64

	for _, t := range trades {
		s.TotalTrades++
		s.ByStatus[t.Status]++
		pnls = append(pnls, t.RealizedPnL)
		if initialCapital > 0 {
			returns = append(returns, t.RealizedPnL/initialCapital)
		}
		if t.RealizedPnL > 0 {
			s.Wins++
			winSum += t.RealizedPnL
		} else if t.RealizedPnL < 0 {
			s.Losses++
			lossSum += t.RealizedPnL
		}
		if t.MaxR > s.BestR {
			s.BestR = t.MaxR
		}
		s.NetPnL += t.RealizedPnL
	}

	if s.Wins > 0 {
		s.AvgWin = winSum / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = lossSum / float64(s.Losses)
	}
	if initialCapital > 0 {
		s.ReturnPct = s.NetPnL / initialCapital * 100
	}

	s.WinRate = risk.WinRate(pnls)
	s.Expectancy = risk.Expectancy(pnls)
	s.ProfitFactor = risk.ProfitFactor(pnls)
	s.SharpeRatio = risk.Sharpe(returns, 0)
	s.SortinoRatio = risk.Sortino(returns, 0)

	if len(equity) > 0 {
		s.MaxDrawdownPct = risk.MaxDrawdown(equity) * 100
	} else if initialCapital > 0 {
		s.MaxDrawdownPct = risk.MaxDrawdown(cumulativeEquity(pnls, initialCapital)) * 100
	}

	return s
}

func cumulativeEquity(pnls []float64, initial float64) []float64 {
	eq := make([]float64, 0, len(pnls)+1)
	cur := initial
	eq = append(eq, cur)
	for _, p := range pnls {
		cur += p
		eq = append(eq, cur)
	}
	return eq
}

// Recommendations turns a summary into actionable observations.
func Recommendations(s Summary) []string {
	var out []string

	if s.TotalTrades == 0 {
		return []string{"no trades taken: widen entry criteria or check data coverage"}
	}
	if s.TotalTrades < 20 {
		out = append(out, fmt.Sprintf("only %d trades: results are not statistically meaningful", s.TotalTrades))
	}
	if s.WinRate < 0.35 {
		out = append(out, fmt.Sprintf("win rate %.0f%% is low: consider tightening range validity or entry buffers", s.WinRate*100))
	}
	if !math.IsInf(s.ProfitFactor, 1) && s.ProfitFactor < 1.2 {
		out = append(out, fmt.Sprintf("profit factor %.2f is thin: review take-profit ladder sizing", s.ProfitFactor))
	}
	if s.MaxDrawdownPct > 15 {
		out = append(out, fmt.Sprintf("max drawdown %.1f%% exceeds 15%%: reduce per-trade risk", s.MaxDrawdownPct))
	}
	if expired := s.ByStatus[trade.StatusExpired]; expired > s.TotalTrades/3 {
		out = append(out, fmt.Sprintf("%d trades expired on duration: targets may be too far for the session", expired))
	}
	if len(out) == 0 {
		out = append(out, "metrics within expected bands; no changes recommended")
	}
	return out
}
