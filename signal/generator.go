package signal

import (
	"fmt"

	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/mrange"
)

// Generator drives exactly one entry strategy per backtest run and
// packages its output into signals and signal groups. Reset must be
// invoked at every trading-day boundary, never mid-day.
type Generator struct {
	cfg      Config
	strategy EntryStrategy

	groups  []*Group
	history []Signal
}

func NewGenerator(cfg Config) (*Generator, error) {
	strat, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg, strategy: strat}, nil
}

// Strategy exposes the underlying variant name for logging.
func (g *Generator) Strategy() string { return g.strategy.Name() }

// Kind returns the configured strategy kind.
func (g *Generator) Kind() Kind { return g.cfg.Kind }

// ProcessCandle feeds one candle through the active strategy. For
// strategies that only trade validated ranges, an invalid range
// short-circuits to no signal.
func (g *Generator) ProcessCandle(c market.Candle, mr mrange.Values) (*Signal, error) {
	if g.cfg.Kind.NeedsValidRange() && !mr.IsValid {
		return nil, nil
	}

	sig, err := g.strategy.CheckEntry(c, mr)
	if err != nil {
		return nil, fmt.Errorf("signal: %s: %w", g.strategy.Name(), err)
	}
	if sig == nil {
		return nil, nil
	}

	g.history = append(g.history, *sig)
	g.track(*sig)

	return sig, nil
}

// track maintains signal-group bookkeeping for multi-step sequences.
func (g *Generator) track(s Signal) {
	switch s.Type {
	case TypeBreakoutConfirmation:
		grp := &Group{Status: GroupActive}
		grp.append(s)
		g.groups = append(g.groups, grp)

	case TypeRetestEntry:
		if grp := g.activeGroup(); grp != nil {
			grp.append(s)
			grp.Status = GroupCompleted
		}
	}
}

func (g *Generator) activeGroup() *Group {
	for i := len(g.groups) - 1; i >= 0; i-- {
		if g.groups[i].Status == GroupActive {
			return g.groups[i]
		}
	}
	return nil
}

// Groups returns the signal groups recorded since the last reset.
func (g *Generator) Groups() []*Group { return g.groups }

// History returns all signals emitted since the last reset.
func (g *Generator) History() []Signal { return g.history }

// Reset propagates to the strategy and clears all groups. Pending groups
// that never completed are marked invalidated before being dropped.
func (g *Generator) Reset() {
	for _, grp := range g.groups {
		if grp.Status == GroupActive {
			grp.Status = GroupInvalidated
		}
	}
	g.groups = nil
	g.history = nil
	g.strategy.Reset()
}
