package feed

import (
	"context"
	"time"

	"github.com/tradelab/rangebreak/indicators"
	"github.com/tradelab/rangebreak/market"
)

// Enricher decorates a Source, backfilling indicator columns the store
// did not supply. Columns already present are never overwritten.
//
// Daily ATR is aggregated from the intraday bars; each day is assigned
// the ATR of the days before it, so a day never contributes to its own
// value. The first warmup days of a window stay unset and are handled
// downstream as a data-quality condition. Bollinger columns are
// computed over closes at the source timeframe.
type Enricher struct {
	src Source

	atrPeriod int
	bbPeriod  int
	bbMult    float64
}

func NewEnricher(src Source) *Enricher {
	return &Enricher{
		src:       src,
		atrPeriod: 14,
		bbPeriod:  20,
		bbMult:    2,
	}
}

func (e *Enricher) Candles(ctx context.Context, instrument, timeframe string, from, to time.Time) ([]market.Candle, error) {
	candles, err := e.src.Candles(ctx, instrument, timeframe, from, to)
	if err != nil {
		return nil, err
	}
	e.backfillATR(candles)
	e.backfillBollinger(candles)
	return candles, nil
}

func (e *Enricher) backfillATR(candles []market.Candle) {
	atr := indicators.NewATR(e.atrPeriod)

	var day market.Candle
	var dayDate time.Time
	haveDay := false
	current := 0.0

	for i := range candles {
		c := candles[i]
		date := dayOf(c.Time)

		switch {
		case !haveDay:
			day, dayDate, haveDay = newDaily(c), date, true
		case !date.Equal(dayDate):
			atr.Update(day)
			current = atr.Value()
			day, dayDate = newDaily(c), date
		default:
			if c.High > day.High {
				day.High = c.High
			}
			if c.Low < day.Low {
				day.Low = c.Low
			}
			day.Close = c.Close
		}

		if candles[i].DailyATR14 <= 0 && current > 0 {
			candles[i].DailyATR14 = current
		}
	}
}

func (e *Enricher) backfillBollinger(candles []market.Candle) {
	bb := indicators.NewBollinger(e.bbPeriod, e.bbMult)
	for i := range candles {
		bb.Update(candles[i])
		if candles[i].HasBollinger() || !bb.Ready() {
			continue
		}
		bands := bb.Bands()
		if !bands.Valid() {
			continue
		}
		candles[i].BBUpper = bands.Upper
		candles[i].BBMiddle = bands.Middle
		candles[i].BBLower = bands.Lower
	}
}

func newDaily(c market.Candle) market.Candle {
	return market.Candle{Time: c.Time, Open: c.Open, High: c.High, Low: c.Low, Close: c.Close}
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
