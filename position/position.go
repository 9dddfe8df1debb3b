// Package position owns open-position state: sizing, stop computation,
// unrealized P&L tracking and exposure accounting.
package position

import (
	"fmt"
	"time"

	"github.com/tradelab/rangebreak/market"
)

// SizingMode selects how position size is computed.
type SizingMode string

const (
	Fixed          SizingMode = "fixed"
	RiskPercent    SizingMode = "risk_percent"
	AccountPercent SizingMode = "account_percent"
)

// ParseSizingMode maps a config string onto a SizingMode.
func ParseSizingMode(s string) (SizingMode, error) {
	switch SizingMode(s) {
	case Fixed, RiskPercent, AccountPercent:
		return SizingMode(s), nil
	}
	return "", fmt.Errorf("position: unknown sizing mode %q (supported: fixed, risk_percent, account_percent)", s)
}

// Position is one open exposure, exclusively owned by the Manager.
type Position struct {
	Instrument   string
	Side         market.Side
	Size         float64
	EntryPrice   float64
	CurrentPrice float64
	StopLoss     float64
	SLPct        float64
	RiskAmount   float64
	Unrealized   float64
	OpenTime     time.Time
}

// Config consolidates sizing and exposure parameters.
// Percentages are 0-100.
type Config struct {
	Mode             SizingMode
	FixedSize        float64
	RiskPct          float64
	AccountPct       float64
	MinSize          float64
	MaxSize          float64
	MaxPositionValue float64 // 0 disables the cap
}

func DefaultConfig() Config {
	return Config{
		Mode:       RiskPercent,
		FixedSize:  1,
		RiskPct:    1.0,
		AccountPct: 10.0,
		MinSize:    1,
		MaxSize:    100000,
	}
}

// Validate fails fast on malformed configuration.
func (c Config) Validate() error {
	switch c.Mode {
	case Fixed, RiskPercent, AccountPercent:
	default:
		return fmt.Errorf("position: unknown sizing mode %q", c.Mode)
	}
	if c.Mode == Fixed && c.FixedSize <= 0 {
		return fmt.Errorf("position: fixed size must be positive, got %v", c.FixedSize)
	}
	if c.Mode == RiskPercent && (c.RiskPct <= 0 || c.RiskPct > 100) {
		return fmt.Errorf("position: risk pct out of range: %v", c.RiskPct)
	}
	if c.Mode == AccountPercent && (c.AccountPct <= 0 || c.AccountPct > 100) {
		return fmt.Errorf("position: account pct out of range: %v", c.AccountPct)
	}
	if c.MinSize < 0 || (c.MaxSize > 0 && c.MaxSize < c.MinSize) {
		return fmt.Errorf("position: bad size bounds [%v,%v]", c.MinSize, c.MaxSize)
	}
	return nil
}

// StopPrice computes the stop-loss level from a percentage distance:
// entry*(1 - slPct/100) for longs, entry*(1 + slPct/100) for shorts.
func StopPrice(entry, slPct float64, side market.Side) float64 {
	if side == market.Short {
		return entry * (1 + slPct/100)
	}
	return entry * (1 - slPct/100)
}
