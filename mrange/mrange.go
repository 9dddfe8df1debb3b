// Package mrange computes the morning reference range for a trading day
// and the buffered entry levels derived from it.
package mrange

import (
	"fmt"
	"time"

	"github.com/tradelab/rangebreak/market"
)

// atrRatioWeight scales the ATR/size quality score.
const atrRatioWeight = 1.2

// minQualityScore is the validity cutoff for the weighted ATR ratio.
const minQualityScore = 3.0

// minRangeSize is the smallest tradable range size in price units.
const minRangeSize = 1.0

// Values is the computed morning range for one (instrument, trading day).
// Read-only after calculation. A data-quality failure sets IsValid=false
// and Err; it is not an error return so callers can skip the day.
type Values struct {
	High  float64
	Low   float64
	Size  float64
	Value float64 // ATR-derived quality score

	IsValid bool
	Err     string
}

// Config controls range construction.
type Config struct {
	Duration    time.Duration // range-forming window, typically 5m or 15m
	BufferTicks float64       // entry buffer in ticks beyond the range edge
	TickSize    float64
}

// DefaultConfig is a 5-minute range with a 2-tick buffer at 0.05 tick size.
func DefaultConfig() Config {
	return Config{
		Duration:    5 * time.Minute,
		BufferTicks: 2,
		TickSize:    0.05,
	}
}

// Validate fails fast on malformed configuration.
func (c Config) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("mrange: duration must be positive, got %v", c.Duration)
	}
	if c.TickSize <= 0 {
		return fmt.Errorf("mrange: tick size must be positive, got %v", c.TickSize)
	}
	if c.BufferTicks < 0 {
		return fmt.Errorf("mrange: buffer ticks must be non-negative, got %v", c.BufferTicks)
	}
	return nil
}

// Calculator computes morning ranges. It is stateless and safe to share.
type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{cfg: cfg}, nil
}

// Calculate computes the range over candles within
// [session open, session open + duration). The candle slice should already
// be restricted to one trading day; the window filter is applied here so
// callers may pass the whole day.
//
// Validity: value = (dailyATR14/size) * 1.2 must exceed 3, size must be at
// least one price unit and the ATR must be positive. Data-quality problems
// produce IsValid=false with a specific Err, never a panic.
func (mc *Calculator) Calculate(day market.TradingDay, session market.Session) Values {
	window := session.MorningWindow(day, mc.cfg.Duration)
	if len(window) == 0 {
		return invalid("no candles in morning range window")
	}

	high := window[0].High
	low := window[0].Low
	atr := 0.0

	for _, c := range window {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
		if c.DailyATR14 > 0 {
			atr = c.DailyATR14
		}
	}

	size := high - low
	if size <= 0 {
		return invalid("non-positive range size")
	}
	if atr <= 0 {
		return invalid("missing or non-positive daily ATR")
	}

	value := (atr / size) * atrRatioWeight

	v := Values{
		High:  high,
		Low:   low,
		Size:  size,
		Value: value,
	}
	v.IsValid = value > minQualityScore && size >= minRangeSize

	if !v.IsValid {
		v.Err = fmt.Sprintf("range rejected: value=%.4f size=%.4f", value, size)
	}
	return v
}

// LongEntry is the buffered breakout level above the range.
func (mc *Calculator) LongEntry(v Values) float64 {
	return v.High + mc.cfg.BufferTicks*mc.cfg.TickSize
}

// ShortEntry is the buffered breakout level below the range.
func (mc *Calculator) ShortEntry(v Values) float64 {
	return v.Low - mc.cfg.BufferTicks*mc.cfg.TickSize
}

// Duration returns the configured range-forming window.
func (mc *Calculator) Duration() time.Duration { return mc.cfg.Duration }

func invalid(reason string) Values {
	return Values{IsValid: false, Err: reason}
}
