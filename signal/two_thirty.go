package signal

import (
	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/mrange"
)

// twoThirtyEntry waits until a configured clock time, snapshots that
// candle's high/low as a fresh reference range, and trades the break of
// that snapshot in the instrument's configured direction only.
type twoThirtyEntry struct {
	cfg Config

	snapped  bool
	snapHigh float64
	snapLow  float64

	canGenerateLong  bool
	canGenerateShort bool
}

func newTwoThirtyEntry(cfg Config) *twoThirtyEntry {
	s := &twoThirtyEntry{cfg: cfg}
	s.Reset()
	return s
}

func (s *twoThirtyEntry) Name() string { return "two_thirty" }

func (s *twoThirtyEntry) Reset() {
	s.snapped = false
	s.snapHigh = 0
	s.snapLow = 0
	s.canGenerateLong = true
	s.canGenerateShort = true
}

func (s *twoThirtyEntry) CheckEntry(c market.Candle, mr mrange.Values) (*Signal, error) {
	at := s.cfg.SnapshotTime.On(c.Time, s.cfg.Session.Location)

	if !s.snapped {
		// Snapshot on the first candle at or after the configured time.
		if c.Time.Before(at) {
			return nil, nil
		}
		s.snapped = true
		s.snapHigh = c.High
		s.snapLow = c.Low
		return nil, nil
	}

	buffer := s.cfg.SnapshotBufferPct / 100
	bias := s.cfg.Instrument.Bias

	// Only the externally configured direction is eligible; the opposite
	// side is never evaluated.
	if bias == market.Long && s.canGenerateLong && c.High >= s.snapHigh*(1+buffer) {
		s.canGenerateLong = false
		return &Signal{
			Type:      TypeTwoThirtyEntry,
			Direction: market.Long,
			Time:      c.Time,
			Price:     s.snapHigh,
			MRValues:  mr,
			Meta: map[string]float64{
				"snapshot_high": s.snapHigh,
				"snapshot_low":  s.snapLow,
			},
		}, nil
	}

	if bias == market.Short && s.canGenerateShort && c.Low <= s.snapLow*(1-buffer) {
		s.canGenerateShort = false
		return &Signal{
			Type:      TypeTwoThirtyEntry,
			Direction: market.Short,
			Time:      c.Time,
			Price:     s.snapLow,
			MRValues:  mr,
			Meta: map[string]float64{
				"snapshot_high": s.snapHigh,
				"snapshot_low":  s.snapLow,
			},
		}, nil
	}

	return nil, nil
}
