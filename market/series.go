package market

import (
	"fmt"
	"sort"
	"time"
)

// Series is a validated, time-ordered candle sequence for one instrument.
// Duplicate timestamps are dropped (first wins) and bars with inconsistent
// OHLC are rejected during construction.
type Series struct {
	Instrument string
	Timeframe  time.Duration
	Candles    []Candle

	duplicates int
	badBars    int
}

// NewSeries validates and orders raw candles. Bars failing basic OHLC
// sanity (high < low, zero timestamp, non-positive prices) are counted
// and skipped rather than failing the whole load.
func NewSeries(instrument string, timeframe time.Duration, raw []Candle) (*Series, error) {
	if timeframe <= 0 {
		return nil, fmt.Errorf("market: timeframe must be positive, got %v", timeframe)
	}

	s := &Series{
		Instrument: instrument,
		Timeframe:  timeframe,
		Candles:    make([]Candle, 0, len(raw)),
	}

	seen := make(map[int64]bool, len(raw))
	for _, c := range raw {
		if !validBar(c) {
			s.badBars++
			continue
		}
		ts := c.Time.Unix()
		if seen[ts] {
			s.duplicates++
			continue
		}
		seen[ts] = true
		s.Candles = append(s.Candles, c)
	}

	sort.Slice(s.Candles, func(i, j int) bool {
		return s.Candles[i].Time.Before(s.Candles[j].Time)
	})

	return s, nil
}

func validBar(c Candle) bool {
	if c.Time.IsZero() {
		return false
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return false
	}
	if c.High < c.Low {
		return false
	}
	if c.High < c.Open || c.High < c.Close || c.Low > c.Open || c.Low > c.Close {
		return false
	}
	return true
}

// Len returns the number of valid candles.
func (s *Series) Len() int { return len(s.Candles) }

// Dropped returns how many raw bars were discarded (duplicates, bad OHLC).
func (s *Series) Dropped() int { return s.duplicates + s.badBars }

// TradingDay is the candle slice for one calendar day in the session's
// location, in time order.
type TradingDay struct {
	Date    time.Time // midnight in session location
	Candles []Candle
}

// SplitDays groups the series into trading days using the session location.
// Days with no candles do not appear.
func (s *Series) SplitDays(loc *time.Location) []TradingDay {
	if loc == nil {
		loc = time.UTC
	}

	var days []TradingDay
	var cur *TradingDay

	for _, c := range s.Candles {
		local := c.Time.In(loc)
		date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

		if cur == nil || !cur.Date.Equal(date) {
			days = append(days, TradingDay{Date: date})
			cur = &days[len(days)-1]
		}
		cur.Candles = append(cur.Candles, c)
	}

	return days
}
