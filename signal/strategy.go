package signal

import (
	"fmt"
	"strings"

	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/mrange"
)

// Kind selects the entry-strategy variant.
type Kind string

const (
	KindFirstEntry Kind = "first_entry"
	KindRetest     Kind = "retest_entry"
	KindTwoThirty  Kind = "two_thirty"
	KindBBWidth    Kind = "bb_width"
)

// NeedsValidRange reports whether the variant only trades validated
// morning ranges.
func (k Kind) NeedsValidRange() bool {
	return k == KindFirstEntry || k == KindRetest
}

// EntryStrategy is the common contract for all variants. Implementations
// keep per-day state; Reset is called exactly once at every trading-day
// boundary. CheckEntry performs no I/O and never blocks.
type EntryStrategy interface {
	Name() string
	Reset()
	CheckEntry(c market.Candle, mr mrange.Values) (*Signal, error)
}

// WidthSource supplies the per-instrument reference Bollinger width used
// by the squeeze strategy. Implementations are external collaborators
// (precomputed statistics); lookups must be in-memory cheap.
type WidthSource interface {
	ReferenceWidth(instrumentKey string) (float64, error)
}

// StaticWidths is a map-backed WidthSource.
type StaticWidths map[string]float64

func (w StaticWidths) ReferenceWidth(key string) (float64, error) {
	v, ok := w[key]
	if !ok || v <= 0 {
		return 0, fmt.Errorf("signal: no reference width for %q", key)
	}
	return v, nil
}

// Config consolidates all strategy parameters. Only the fields relevant to
// the configured Kind are read.
type Config struct {
	Kind       Kind
	Instrument market.Instrument

	// first-entry
	BreakoutBufferPct float64 // e.g. 0.07

	// two-thirty
	SnapshotTime      market.ClockTime // e.g. 14:30
	SnapshotBufferPct float64          // e.g. 0.03

	// retest
	RetestMaxAdversePct float64 // invalidation distance beyond the range

	// bb-width
	SqueezeTolerancePct float64 // e.g. 0.1
	SqueezeMinDuration  int
	SqueezeMaxDuration  int
	Widths              WidthSource

	Session market.Session
}

// DefaultConfig returns the first-entry variant with reference parameters.
func DefaultConfig(inst market.Instrument) Config {
	return Config{
		Kind:                KindFirstEntry,
		Instrument:          inst,
		BreakoutBufferPct:   0.07,
		SnapshotTime:        market.ClockTime{Hour: 14, Minute: 30},
		SnapshotBufferPct:   0.03,
		RetestMaxAdversePct: 0.5,
		SqueezeTolerancePct: 0.1,
		SqueezeMinDuration:  3,
		SqueezeMaxDuration:  30,
		Session:             market.DefaultSession(),
	}
}

// Validate fails fast at construction time.
func (c Config) Validate() error {
	switch c.Kind {
	case KindFirstEntry, KindRetest, KindTwoThirty, KindBBWidth:
	default:
		return fmt.Errorf("signal: unknown strategy kind %q", c.Kind)
	}
	if c.BreakoutBufferPct < 0 || c.SnapshotBufferPct < 0 {
		return fmt.Errorf("signal: buffers must be non-negative")
	}
	if c.Kind == KindBBWidth {
		if c.SqueezeMinDuration <= 0 || c.SqueezeMaxDuration < c.SqueezeMinDuration {
			return fmt.Errorf("signal: bad squeeze duration bounds [%d,%d]",
				c.SqueezeMinDuration, c.SqueezeMaxDuration)
		}
		if c.Widths == nil {
			return fmt.Errorf("signal: bb_width strategy requires a width source")
		}
	}
	if c.Kind == KindRetest && c.RetestMaxAdversePct <= 0 {
		return fmt.Errorf("signal: retest invalidation distance must be positive")
	}
	return nil
}

// ParseKind maps a config string onto a Kind. Accepts the legacy
// "1st_entry" spelling.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first_entry", "1st_entry", "first":
		return KindFirstEntry, nil
	case "retest_entry", "retest":
		return KindRetest, nil
	case "two_thirty", "230", "2_30":
		return KindTwoThirty, nil
	case "bb_width", "bbwidth", "squeeze":
		return KindBBWidth, nil
	}
	return "", fmt.Errorf("signal: unknown strategy %q (supported: first_entry, retest_entry, two_thirty, bb_width)", s)
}

// New maps a validated config onto the concrete variant.
func New(cfg Config) (EntryStrategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Kind {
	case KindFirstEntry:
		return newFirstEntry(cfg), nil
	case KindRetest:
		return newRetestEntry(cfg), nil
	case KindTwoThirty:
		return newTwoThirtyEntry(cfg), nil
	case KindBBWidth:
		return newBBWidthEntry(cfg), nil
	}
	return nil, fmt.Errorf("signal: unknown strategy kind %q", cfg.Kind)
}
