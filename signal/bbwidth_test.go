package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/mrange"
)

func bbStrategy(bias market.Side, minDur, maxDur int) *bbWidthEntry {
	inst := nifty()
	inst.Bias = bias
	cfg := DefaultConfig(inst)
	cfg.Kind = KindBBWidth
	cfg.SqueezeMinDuration = minDur
	cfg.SqueezeMaxDuration = maxDur
	cfg.Widths = StaticWidths{"NIFTY": 1.0}
	return newBBWidthEntry(cfg)
}

// squeezeCandle has band width 1.0 (within a 1.0 reference) and a close
// inside the bands.
func squeezeCandle(at time.Time, close float64) market.Candle {
	return market.Candle{
		Time: at, Open: close, High: close + 0.1, Low: close - 0.1, Close: close,
		Volume:   1000,
		BBUpper:  close + 0.5,
		BBMiddle: close,
		BBLower:  close - 0.5,
	}
}

// breakoutCandle closes above its upper band with squeeze-tight width.
func breakoutCandle(at time.Time) market.Candle {
	return market.Candle{
		Time: at, Open: 100, High: 101, Low: 99.9, Close: 100.9,
		Volume:   1000,
		BBUpper:  100.8,
		BBMiddle: 100.3,
		BBLower:  99.8,
	}
}

func TestBBWidth_FiresInsideDurationWindow(t *testing.T) {
	t.Parallel()

	s := bbStrategy(market.Long, 3, 30)
	mr := mrange.Values{}

	at := dayOpen
	for i := 0; i < 2; i++ {
		sig, err := s.CheckEntry(squeezeCandle(at, 100), mr)
		assert.NoError(t, err)
		assert.Nil(t, sig)
		at = at.Add(time.Minute)
	}

	// Third squeeze candle reaches the minimum duration; close outside the
	// upper band fires long.
	sig, err := s.CheckEntry(breakoutCandle(at), mr)
	assert.NoError(t, err)
	assert.NotNil(t, sig)
	assert.Equal(t, TypeBBWidthEntry, sig.Type)
	assert.Equal(t, market.Long, sig.Direction)
	assert.InDelta(t, 100.9, sig.Price, 1e-9)
	assert.InDelta(t, 3.0, sig.Meta["squeeze_length"], 1e-9)
}

func TestBBWidth_MinDurationIsInclusive(t *testing.T) {
	t.Parallel()

	s := bbStrategy(market.Long, 1, 30)
	mr := mrange.Values{}

	// A single squeeze candle that also breaks out fires immediately.
	sig, err := s.CheckEntry(breakoutCandle(dayOpen), mr)
	assert.NoError(t, err)
	assert.NotNil(t, sig)
	assert.InDelta(t, 1.0, sig.Meta["squeeze_length"], 1e-9)
}

func TestBBWidth_OverlongSqueezeNeverFires(t *testing.T) {
	t.Parallel()

	s := bbStrategy(market.Long, 1, 2)
	mr := mrange.Values{}

	at := dayOpen
	for i := 0; i < 2; i++ {
		_, _ = s.CheckEntry(squeezeCandle(at, 100), mr)
		at = at.Add(time.Minute)
	}

	// Count is now 3, beyond the maximum: no late signal.
	sig, err := s.CheckEntry(breakoutCandle(at), mr)
	assert.NoError(t, err)
	assert.Nil(t, sig)
}

func TestBBWidth_WideBandsResetCounter(t *testing.T) {
	t.Parallel()

	s := bbStrategy(market.Long, 3, 30)
	mr := mrange.Values{}

	at := dayOpen
	_, _ = s.CheckEntry(squeezeCandle(at, 100), mr)
	_, _ = s.CheckEntry(squeezeCandle(at.Add(time.Minute), 100), mr)

	// Width 2.0 exceeds reference*(1+0.1%): counter resets.
	wide := squeezeCandle(at.Add(2*time.Minute), 100)
	wide.BBUpper = 101
	wide.BBLower = 99
	_, _ = s.CheckEntry(wide, mr)
	assert.Equal(t, 0, s.squeezeCount)
}

func TestBBWidth_BadBandDataResetsCounter(t *testing.T) {
	t.Parallel()

	s := bbStrategy(market.Long, 3, 30)
	mr := mrange.Values{}

	_, _ = s.CheckEntry(squeezeCandle(dayOpen, 100), mr)

	// Missing band columns are a data-quality skip, not an error.
	sig, err := s.CheckEntry(candle(dayOpen.Add(time.Minute), 100, 100.1, 99.9, 100), mr)
	assert.NoError(t, err)
	assert.Nil(t, sig)
	assert.Equal(t, 0, s.squeezeCount)
}

func TestBBWidth_OncePerDayUntilReset(t *testing.T) {
	t.Parallel()

	s := bbStrategy(market.Long, 1, 30)
	mr := mrange.Values{}

	sig, _ := s.CheckEntry(breakoutCandle(dayOpen), mr)
	assert.NotNil(t, sig)

	// In-trade flag blocks everything until the day boundary.
	sig, err := s.CheckEntry(breakoutCandle(dayOpen.Add(time.Minute)), mr)
	assert.NoError(t, err)
	assert.Nil(t, sig)

	s.Reset()
	sig, _ = s.CheckEntry(breakoutCandle(dayOpen.Add(2*time.Minute)), mr)
	assert.NotNil(t, sig)
}

func TestBBWidth_ShortBias(t *testing.T) {
	t.Parallel()

	s := bbStrategy(market.Short, 1, 30)
	mr := mrange.Values{}

	c := market.Candle{
		Time: dayOpen, Open: 100, High: 100.1, Low: 99, Close: 99.1,
		Volume:   1000,
		BBUpper:  100.2,
		BBMiddle: 99.7,
		BBLower:  99.2,
	}

	sig, err := s.CheckEntry(c, mr)
	assert.NoError(t, err)
	assert.NotNil(t, sig)
	assert.Equal(t, market.Short, sig.Direction)
}

func TestBBWidth_MissingReferenceWidthSkips(t *testing.T) {
	t.Parallel()

	s := bbStrategy(market.Long, 1, 30)
	s.cfg.Widths = StaticWidths{}

	sig, err := s.CheckEntry(breakoutCandle(dayOpen), mrange.Values{})
	assert.NoError(t, err)
	assert.Nil(t, sig)
}
