package backtest

import (
	"fmt"

	"github.com/tradelab/rangebreak/market"
)

// SimConfig controls the execution model.
type SimConfig struct {
	SlippagePct       float64 // adverse fill slippage as % of price
	ImpactCoeff       float64 // market-impact scale per unit of volume fraction
	MaxVolumeFraction float64 // largest share of bar volume fillable at once
}

func DefaultSimConfig() SimConfig {
	return SimConfig{
		SlippagePct:       0.03,
		ImpactCoeff:       0.1,
		MaxVolumeFraction: 0.1,
	}
}

func (c SimConfig) Validate() error {
	if c.SlippagePct < 0 {
		return fmt.Errorf("backtest: slippage pct must be non-negative, got %v", c.SlippagePct)
	}
	if c.ImpactCoeff < 0 {
		return fmt.Errorf("backtest: impact coeff must be non-negative, got %v", c.ImpactCoeff)
	}
	if c.MaxVolumeFraction <= 0 || c.MaxVolumeFraction > 1 {
		return fmt.Errorf("backtest: max volume fraction out of (0,1]: %v", c.MaxVolumeFraction)
	}
	return nil
}

// Fill is the simulated execution of an order.
type Fill struct {
	Price   float64
	Size    float64
	Partial bool
}

// Simulator applies slippage and volume-based market impact to fills.
// When requested size exceeds the configured fraction of bar volume the
// fill is PARTIAL: the position is opened at the filled size only and the
// remainder is dropped, not queued. This is a conservative backtest
// assumption.
type Simulator struct {
	cfg SimConfig
}

func NewSimulator(cfg SimConfig) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{cfg: cfg}, nil
}

// Fill simulates executing size units at the signal price against a bar
// with the given volume. A zero-size result means the order could not be
// filled at all.
func (s *Simulator) Fill(side market.Side, size, price, barVolume float64) Fill {
	if size <= 0 || price <= 0 {
		return Fill{}
	}

	filled := size
	partial := false

	fraction := 0.0
	if barVolume > 0 {
		maxFill := barVolume * s.cfg.MaxVolumeFraction
		if size > maxFill {
			filled = maxFill
			partial = true
		}
		fraction = filled / barVolume
	}
	if filled <= 0 {
		return Fill{}
	}

	slip := price * s.cfg.SlippagePct / 100
	impact := price * s.cfg.ImpactCoeff * fraction / 100

	fillPrice := price + slip + impact
	if side == market.Short {
		fillPrice = price - slip - impact
	}

	return Fill{Price: fillPrice, Size: filled, Partial: partial}
}
