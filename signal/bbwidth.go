package signal

import (
	"github.com/tradelab/rangebreak/indicators"
	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/mrange"
)

// bbWidthEntry is the volatility-squeeze state machine. It counts
// consecutive candles whose band width stays at or below the reference
// width (plus tolerance); a breakout close outside the bands while the
// squeeze has lasted between the inclusive duration bounds fires the
// entry, in the instrument's bias direction only, once per day.
type bbWidthEntry struct {
	cfg Config

	squeezeCount int
	inLongTrade  bool
	inShortTrade bool
}

func newBBWidthEntry(cfg Config) *bbWidthEntry {
	s := &bbWidthEntry{cfg: cfg}
	s.Reset()
	return s
}

func (s *bbWidthEntry) Name() string { return "bb_width" }

func (s *bbWidthEntry) Reset() {
	s.squeezeCount = 0
	s.inLongTrade = false
	s.inShortTrade = false
}

func (s *bbWidthEntry) CheckEntry(c market.Candle, mr mrange.Values) (*Signal, error) {
	// Once a trade has been taken, nothing else fires until Reset.
	if s.inLongTrade || s.inShortTrade {
		return nil, nil
	}

	bands, ok := indicators.BandsFromCandle(c)
	if !ok {
		// Missing or inconsistent band columns: data-quality skip.
		s.squeezeCount = 0
		return nil, nil
	}

	ref, err := s.cfg.Widths.ReferenceWidth(s.cfg.Instrument.Key)
	if err != nil {
		// No reference statistic for this instrument; skip, don't fail the day.
		return nil, nil
	}

	threshold := ref * (1 + s.cfg.SqueezeTolerancePct/100)
	width := bands.Width()

	if width > threshold {
		s.squeezeCount = 0
		return nil, nil
	}
	s.squeezeCount++

	// Duration bounds are inclusive. A squeeze that outlives the maximum
	// produces no signal at all, not a late one.
	if s.squeezeCount < s.cfg.SqueezeMinDuration || s.squeezeCount > s.cfg.SqueezeMaxDuration {
		return nil, nil
	}

	bias := s.cfg.Instrument.Bias

	if bias == market.Long && c.Close > bands.Upper {
		s.inLongTrade = true
		return &Signal{
			Type:      TypeBBWidthEntry,
			Direction: market.Long,
			Time:      c.Time,
			Price:     c.Close,
			MRValues:  mr,
			Meta: map[string]float64{
				"bb_width":       width,
				"reference":      ref,
				"squeeze_length": float64(s.squeezeCount),
			},
		}, nil
	}

	if bias == market.Short && c.Close < bands.Lower {
		s.inShortTrade = true
		return &Signal{
			Type:      TypeBBWidthEntry,
			Direction: market.Short,
			Time:      c.Time,
			Price:     c.Close,
			MRValues:  mr,
			Meta: map[string]float64{
				"bb_width":       width,
				"reference":      ref,
				"squeeze_length": float64(s.squeezeCount),
			},
		}, nil
	}

	return nil, nil
}
