package signal

import (
	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/mrange"
)

type retestPhase int

const (
	phaseIdle retestPhase = iota
	phaseBrokenOut
	phaseRetested
)

// retestEntry is a two-phase state machine. Phase 1 confirms a breakout
// (close beyond the range edge); phase 2 waits for price to pull back to
// the broken level and close beyond it again before emitting the entry.
// If price moves too far against the breakout before the retest, the
// sequence is invalidated and the machine returns to idle.
type retestEntry struct {
	cfg Config

	phase     retestPhase
	direction market.Side
	level     float64

	canGenerateLong  bool
	canGenerateShort bool
}

func newRetestEntry(cfg Config) *retestEntry {
	s := &retestEntry{cfg: cfg}
	s.Reset()
	return s
}

func (s *retestEntry) Name() string { return "retest_entry" }

func (s *retestEntry) Reset() {
	s.phase = phaseIdle
	s.direction = 0
	s.level = 0
	s.canGenerateLong = true
	s.canGenerateShort = true
}

func (s *retestEntry) CheckEntry(c market.Candle, mr mrange.Values) (*Signal, error) {
	if !mr.IsValid {
		return nil, nil
	}

	switch s.phase {
	case phaseIdle:
		return s.checkBreakout(c, mr), nil
	case phaseBrokenOut:
		return nil, s.checkRetest(c)
	case phaseRetested:
		return s.checkConfirmation(c, mr), nil
	}
	return nil, nil
}

// checkBreakout detects phase 1: a close beyond the range edge.
func (s *retestEntry) checkBreakout(c market.Candle, mr mrange.Values) *Signal {
	if s.canGenerateLong && c.Close > mr.High {
		s.phase = phaseBrokenOut
		s.direction = market.Long
		s.level = mr.High
		return &Signal{
			Type:      TypeBreakoutConfirmation,
			Direction: market.Long,
			Time:      c.Time,
			Price:     mr.High,
			MRValues:  mr,
		}
	}
	if s.canGenerateShort && c.Close < mr.Low {
		s.phase = phaseBrokenOut
		s.direction = market.Short
		s.level = mr.Low
		return &Signal{
			Type:      TypeBreakoutConfirmation,
			Direction: market.Short,
			Time:      c.Time,
			Price:     mr.Low,
			MRValues:  mr,
		}
	}
	return nil
}

// checkRetest waits for the pullback to the broken level, invalidating if
// price runs too far through it first.
func (s *retestEntry) checkRetest(c market.Candle) error {
	adverse := s.level * s.cfg.RetestMaxAdversePct / 100

	switch s.direction {
	case market.Long:
		if c.Close < s.level-adverse {
			// Breakout failed before any retest.
			s.invalidate()
			return nil
		}
		if c.Low <= s.level {
			s.phase = phaseRetested
		}
	case market.Short:
		if c.Close > s.level+adverse {
			s.invalidate()
			return nil
		}
		if c.High >= s.level {
			s.phase = phaseRetested
		}
	}
	return nil
}

// checkConfirmation emits the entry once price closes back beyond the
// retested level, continuing the breakout.
func (s *retestEntry) checkConfirmation(c market.Candle, mr mrange.Values) *Signal {
	adverse := s.level * s.cfg.RetestMaxAdversePct / 100

	switch s.direction {
	case market.Long:
		if c.Close < s.level-adverse {
			s.invalidate()
			return nil
		}
		if c.Close > s.level {
			s.canGenerateLong = false
			s.phase = phaseIdle
			return &Signal{
				Type:      TypeRetestEntry,
				Direction: market.Long,
				Time:      c.Time,
				Price:     s.level,
				MRValues:  mr,
			}
		}
	case market.Short:
		if c.Close > s.level+adverse {
			s.invalidate()
			return nil
		}
		if c.Close < s.level {
			s.canGenerateShort = false
			s.phase = phaseIdle
			return &Signal{
				Type:      TypeRetestEntry,
				Direction: market.Short,
				Time:      c.Time,
				Price:     s.level,
				MRValues:  mr,
			}
		}
	}
	return nil
}

func (s *retestEntry) invalidate() {
	// The failed direction stays blocked for the day.
	if s.direction == market.Long {
		s.canGenerateLong = false
	} else {
		s.canGenerateShort = false
	}
	s.phase = phaseIdle
	s.direction = 0
	s.level = 0
}
