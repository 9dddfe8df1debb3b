package signal

import (
	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/mrange"
)

// firstEntry emits an immediate-breakout signal when price clears the
// buffered morning-range edge. The very first candle of the session (the
// range-forming candle) is skipped, and each direction fires at most once
// per day.
type firstEntry struct {
	cfg Config

	seenCandles      int
	canGenerateLong  bool
	canGenerateShort bool
}

func newFirstEntry(cfg Config) *firstEntry {
	s := &firstEntry{cfg: cfg}
	s.Reset()
	return s
}

func (s *firstEntry) Name() string { return "first_entry" }

func (s *firstEntry) Reset() {
	s.seenCandles = 0
	s.canGenerateLong = true
	s.canGenerateShort = true
}

func (s *firstEntry) CheckEntry(c market.Candle, mr mrange.Values) (*Signal, error) {
	s.seenCandles++
	if s.seenCandles == 1 {
		// Range-forming candle.
		return nil, nil
	}
	if !mr.IsValid {
		return nil, nil
	}

	buffer := s.cfg.BreakoutBufferPct / 100

	if s.canGenerateLong && c.High >= mr.High*(1+buffer) {
		s.canGenerateLong = false
		return &Signal{
			Type:      TypeImmediateBreakout,
			Direction: market.Long,
			Time:      c.Time,
			Price:     mr.High,
			MRValues:  mr,
		}, nil
	}

	if s.canGenerateShort && c.Low <= mr.Low*(1-buffer) {
		s.canGenerateShort = false
		return &Signal{
			Type:      TypeImmediateBreakout,
			Direction: market.Short,
			Time:      c.Time,
			Price:     mr.Low,
			MRValues:  mr,
		}, nil
	}

	return nil, nil
}
