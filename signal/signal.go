// Package signal defines entry signals, the entry-strategy state machines
// that produce them, and the generator that drives one strategy per run.
package signal

import (
	"time"

	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/mrange"
)

// Type identifies what produced a signal.
type Type string

const (
	TypeImmediateBreakout    Type = "immediate_breakout"
	TypeRetestEntry          Type = "retest_entry"
	TypeTwoThirtyEntry       Type = "two_thirty_entry"
	TypeBBWidthEntry         Type = "bb_width_entry"
	TypeBreakoutConfirmation Type = "breakout_confirmation"
	TypeExit                 Type = "exit"
)

// Entry reports whether a signal of this type should be traded.
// Confirmation and exit signals are bookkeeping, not entries.
func (t Type) Entry() bool {
	switch t {
	case TypeImmediateBreakout, TypeRetestEntry, TypeTwoThirtyEntry, TypeBBWidthEntry:
		return true
	}
	return false
}

// Signal is one directional opportunity. Produced by exactly one strategy
// per opportunity and consumed once by the engine.
type Signal struct {
	Type      Type
	Direction market.Side
	Time      time.Time
	Price     float64
	MRValues  mrange.Values
	Meta      map[string]float64
}

// GroupStatus tracks a multi-step entry sequence.
type GroupStatus string

const (
	GroupActive      GroupStatus = "active"
	GroupCompleted   GroupStatus = "completed"
	GroupInvalidated GroupStatus = "invalidated"
)

// Group is an ordered collection of related signals, e.g. a breakout
// confirmation followed by its retest entry. Exists only while the
// sequence is pending.
type Group struct {
	Signals []Signal
	Status  GroupStatus
	Start   time.Time
	End     time.Time
}

func (g *Group) append(s Signal) {
	if len(g.Signals) == 0 {
		g.Start = s.Time
	}
	g.Signals = append(g.Signals, s)
	g.End = s.Time
}
