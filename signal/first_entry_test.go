package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/mrange"
)

var dayOpen = time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)

func nifty() market.Instrument {
	return market.Instrument{Key: "NIFTY", Name: "Nifty 50", Bias: market.Long, TickSize: 0.05}
}

func validMR() mrange.Values {
	return mrange.Values{High: 100, Low: 99, Size: 1, Value: 4.8, IsValid: true}
}

func candle(at time.Time, o, h, l, c float64) market.Candle {
	return market.Candle{Time: at, Open: o, High: h, Low: l, Close: c, Volume: 1000}
}

func TestFirstEntry_BreakoutEmitsOnce(t *testing.T) {
	t.Parallel()

	s := newFirstEntry(DefaultConfig(nifty()))
	mr := validMR()

	// Range-forming candle is always skipped, even on a breakout print.
	sig, err := s.CheckEntry(candle(dayOpen, 99.5, 100.2, 99.4, 100.1), mr)
	assert.NoError(t, err)
	assert.Nil(t, sig)

	// mr_high=100, buffer 0.07% -> threshold 100.07; high=100.08 breaks out.
	sig, err = s.CheckEntry(candle(dayOpen.Add(time.Minute), 99.9, 100.08, 99.8, 100.05), mr)
	assert.NoError(t, err)
	assert.NotNil(t, sig)
	assert.Equal(t, TypeImmediateBreakout, sig.Type)
	assert.Equal(t, market.Long, sig.Direction)
	// Signal price is the raw range high, not the buffered threshold.
	assert.InDelta(t, 100.0, sig.Price, 1e-9)

	// A second breakout candle produces no further long signal.
	sig, err = s.CheckEntry(candle(dayOpen.Add(2*time.Minute), 100.1, 100.5, 100, 100.4), mr)
	assert.NoError(t, err)
	assert.Nil(t, sig)
}

func TestFirstEntry_BelowThresholdNoSignal(t *testing.T) {
	t.Parallel()

	s := newFirstEntry(DefaultConfig(nifty()))
	mr := validMR()

	_, _ = s.CheckEntry(candle(dayOpen, 99.5, 100, 99.4, 99.9), mr)

	// high=100.06 is under the 100.07 threshold.
	sig, err := s.CheckEntry(candle(dayOpen.Add(time.Minute), 99.9, 100.06, 99.8, 100), mr)
	assert.NoError(t, err)
	assert.Nil(t, sig)
}

func TestFirstEntry_ShortSideIndependent(t *testing.T) {
	t.Parallel()

	s := newFirstEntry(DefaultConfig(nifty()))
	mr := validMR()

	_, _ = s.CheckEntry(candle(dayOpen, 99.5, 100, 99.4, 99.9), mr)

	// Long fires.
	sig, err := s.CheckEntry(candle(dayOpen.Add(time.Minute), 99.9, 100.08, 99.8, 100.05), mr)
	assert.NoError(t, err)
	assert.NotNil(t, sig)

	// Short still armed: mr_low=99, threshold 99*(1-0.0007)=98.9307.
	sig, err = s.CheckEntry(candle(dayOpen.Add(2*time.Minute), 99.2, 99.3, 98.9, 99), mr)
	assert.NoError(t, err)
	assert.NotNil(t, sig)
	assert.Equal(t, market.Short, sig.Direction)
	assert.InDelta(t, 99.0, sig.Price, 1e-9)
}

func TestFirstEntry_InvalidRangeNoSignal(t *testing.T) {
	t.Parallel()

	s := newFirstEntry(DefaultConfig(nifty()))
	mr := mrange.Values{IsValid: false, Err: "range rejected"}

	_, _ = s.CheckEntry(candle(dayOpen, 99.5, 100, 99.4, 99.9), mr)
	sig, err := s.CheckEntry(candle(dayOpen.Add(time.Minute), 99.9, 200, 99.8, 150), mr)
	assert.NoError(t, err)
	assert.Nil(t, sig)
}

func TestFirstEntry_ResetRearmsBothDirections(t *testing.T) {
	t.Parallel()

	s := newFirstEntry(DefaultConfig(nifty()))
	mr := validMR()

	_, _ = s.CheckEntry(candle(dayOpen, 99.5, 100, 99.4, 99.9), mr)
	sig, _ := s.CheckEntry(candle(dayOpen.Add(time.Minute), 99.9, 100.08, 99.8, 100.05), mr)
	assert.NotNil(t, sig)

	s.Reset()

	// After reset the first candle is skipped again, then long re-fires.
	sig, _ = s.CheckEntry(candle(dayOpen.Add(2*time.Minute), 99.9, 100.5, 99.8, 100.4), mr)
	assert.Nil(t, sig)
	sig, _ = s.CheckEntry(candle(dayOpen.Add(3*time.Minute), 99.9, 100.5, 99.8, 100.4), mr)
	assert.NotNil(t, sig)
}
