package market

import "time"

// Side: +1 long, -1 short
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	if s == Short {
		return "SHORT"
	}
	return "LONG"
}

// SideFromString parses "LONG"/"SHORT" (case sensitive, matching report output).
func SideFromString(s string) (Side, bool) {
	switch s {
	case "LONG":
		return Long, true
	case "SHORT":
		return Short, true
	}
	return 0, false
}

// Candle is one OHLCV bar plus optional precomputed indicator columns.
// Candles are immutable once loaded; a zero indicator field means the
// column was absent from the source.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64

	// Optional precomputed columns supplied by the candle source.
	DailyATR14 float64
	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
}

// HasBollinger reports whether the Bollinger columns were supplied.
func (c Candle) HasBollinger() bool {
	return c.BBUpper != 0 || c.BBMiddle != 0 || c.BBLower != 0
}

// Range returns high-low for the bar.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// Instrument describes one tradable symbol.
type Instrument struct {
	Key      string
	Name     string
	Bias     Side    // configured trade direction for biased strategies
	TickSize float64 // minimum price increment
}
