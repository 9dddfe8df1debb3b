package indicators

import (
	"fmt"
	"math"

	"github.com/tradelab/rangebreak/market"
)

// Bands holds one Bollinger band reading.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// Width returns upper - lower.
func (b Bands) Width() float64 {
	return b.Upper - b.Lower
}

// Valid reports upper >= middle >= lower with all values positive.
func (b Bands) Valid() bool {
	if b.Upper <= 0 || b.Middle <= 0 || b.Lower <= 0 {
		return false
	}
	return b.Upper >= b.Middle && b.Middle >= b.Lower
}

// Bollinger is a streaming Bollinger band indicator over closes. The
// middle band is an SMA of the same period.
type Bollinger struct {
	period int
	mult   float64
	sma    *SMA
	window []float64
}

func NewBollinger(period int, mult float64) *Bollinger {
	return &Bollinger{
		period: period,
		mult:   mult,
		sma:    NewSMA(period),
		window: make([]float64, 0, period),
	}
}

func (b *Bollinger) Name() string {
	return fmt.Sprintf("BB(%d,%g)", b.period, b.mult)
}

func (b *Bollinger) Warmup() int { return b.period }

func (b *Bollinger) Reset() {
	b.sma.Reset()
	b.window = b.window[:0]
}

func (b *Bollinger) Update(c market.Candle) {
	b.sma.Update(c)
	b.window = append(b.window, c.Close)
	if len(b.window) > b.period {
		b.window = b.window[1:]
	}
}

func (b *Bollinger) Ready() bool {
	return b.sma.Ready()
}

// Value returns the band width (upper - lower); use Bands() for all three.
func (b *Bollinger) Value() float64 {
	return b.Bands().Width()
}

func (b *Bollinger) Bands() Bands {
	if !b.Ready() {
		return Bands{}
	}

	mean := b.sma.Value()

	variance := 0.0
	for _, v := range b.window {
		d := v - mean
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(b.period))

	return Bands{
		Upper:  mean + b.mult*sd,
		Middle: mean,
		Lower:  mean - b.mult*sd,
	}
}

// BandsFromCandle extracts precomputed Bollinger columns from a candle.
// ok is false when the columns were absent or inconsistent.
func BandsFromCandle(c market.Candle) (Bands, bool) {
	b := Bands{Upper: c.BBUpper, Middle: c.BBMiddle, Lower: c.BBLower}
	if !b.Valid() {
		return Bands{}, false
	}
	return b, true
}
