// Package indicators provides streaming technical indicators used by the
// range calculators and entry strategies.
package indicators

import "github.com/tradelab/rangebreak/market"

// Indicator computes a single streaming value from candles.
// It is deterministic and safe to reuse across backtest runs after Reset.
type Indicator interface {
	// Name returns a stable identifier like "ATR(14)" or "BB(20,2)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* candle and updates internal state.
	Update(c market.Candle)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current value. Callers should always check Ready()
	// first; before warmup the value is 0.
	Value() float64
}
