// Package trade owns the trade lifecycle: creation, multi-level take-profit
// execution, stop/trail management, duration expiry and closure.
package trade

import (
	"fmt"
	"sort"
	"time"

	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/position"
)

// Status is the trade lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusActive     Status = "active"
	StatusPartialTP  Status = "partial_tp"
	StatusTrailing   Status = "trailing"
	StatusBreakeven  Status = "breakeven"
	StatusStoppedOut Status = "stopped_out"
	StatusTakeProfit Status = "take_profit"
	StatusClosed     Status = "closed"
	StatusExpired    Status = "expired"
	StatusRejected   Status = "rejected"
)

// Closed reports whether the status is terminal.
func (s Status) Closed() bool {
	switch s {
	case StatusStoppedOut, StatusTakeProfit, StatusClosed, StatusExpired, StatusRejected:
		return true
	}
	return false
}

// LevelConfig declares one take-profit level.
type LevelConfig struct {
	RMultiple       float64
	SizePct         float64 // percentage of the *initial* size to exit
	MoveSLToBE      bool
	TrailActivation bool
}

// Level is a take-profit level priced for a specific trade.
type Level struct {
	LevelConfig
	Price    float64
	Executed bool
}

// Execution records one partial exit.
type Execution struct {
	Level int
	Time  time.Time
	Price float64
	Size  float64
	PnL   float64
}

// Trade is a superset of a position with lifecycle fields. Owned by the
// Manager; external code treats it as read-only.
type Trade struct {
	ID         string
	Instrument string
	Side       market.Side
	EntryTime  time.Time
	EntryPrice float64

	InitialSize   float64
	RemainingSize float64

	StopLoss   float64
	SLPct      float64
	RiskAmount float64 // per-unit risk: |entry - initial stop|

	Levels     []Level
	Executions []Execution

	Trailing     bool
	TrailStepPct float64

	Status      Status
	RealizedPnL float64
	MaxR        float64

	ExitTime  time.Time
	ExitPrice float64
}

// Config consolidates trade lifecycle parameters.
type Config struct {
	Levels       []LevelConfig
	TrailStepPct float64 // trailing distance as % of current price
	MaxDuration  time.Duration
}

// DefaultConfig uses a 3R/5R/7R ladder with breakeven after the first
// partial and trailing after the second.
func DefaultConfig() Config {
	return Config{
		Levels: []LevelConfig{
			{RMultiple: 3, SizePct: 50, MoveSLToBE: true},
			{RMultiple: 5, SizePct: 25, TrailActivation: true},
			{RMultiple: 7, SizePct: 25},
		},
		TrailStepPct: 0.5,
		MaxDuration:  6 * time.Hour,
	}
}

// Validate fails fast on malformed configuration, including ladders whose
// cumulative exit fractions exceed the initial size.
func (c Config) Validate() error {
	if len(c.Levels) == 0 {
		return fmt.Errorf("trade: at least one take-profit level required")
	}
	total := 0.0
	for i, l := range c.Levels {
		if l.RMultiple <= 0 {
			return fmt.Errorf("trade: level %d r-multiple must be positive, got %v", i, l.RMultiple)
		}
		if l.SizePct <= 0 || l.SizePct > 100 {
			return fmt.Errorf("trade: level %d size pct out of range: %v", i, l.SizePct)
		}
		total += l.SizePct
	}
	if total > 100+1e-9 {
		return fmt.Errorf("trade: take-profit sizes sum to %.2f%% (> 100%%)", total)
	}
	if c.TrailStepPct < 0 {
		return fmt.Errorf("trade: trail step pct must be non-negative, got %v", c.TrailStepPct)
	}
	if c.MaxDuration <= 0 {
		return fmt.Errorf("trade: max duration must be positive, got %v", c.MaxDuration)
	}
	return nil
}

// buildLevels prices the ladder once at entry: tp = entry ± risk*rMultiple,
// ascending by r-multiple so execution order is deterministic.
func buildLevels(cfg Config, entry, riskPerUnit float64, side market.Side) []Level {
	levels := make([]Level, len(cfg.Levels))
	for i, lc := range cfg.Levels {
		price := entry + riskPerUnit*lc.RMultiple
		if side == market.Short {
			price = entry - riskPerUnit*lc.RMultiple
		}
		levels[i] = Level{LevelConfig: lc, Price: price}
	}
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].RMultiple < levels[j].RMultiple
	})
	return levels
}

// StopPrice re-exports the position stop convention for callers priced off
// a trade config.
func StopPrice(entry, slPct float64, side market.Side) float64 {
	return position.StopPrice(entry, slPct, side)
}
