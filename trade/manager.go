package trade

import (
	"fmt"
	"math"
	"time"

	"github.com/tradelab/rangebreak/internal/id"
	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/position"
	"github.com/tradelab/rangebreak/risk"
)

// Manager drives trade lifecycles for one backtest run. One active trade
// per instrument; not safe for concurrent use.
type Manager struct {
	cfg    Config
	active map[string]*Trade
	closed []*Trade
}

func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		cfg:    cfg,
		active: make(map[string]*Trade),
	}, nil
}

// Open creates a trade and prices its stop and take-profit ladder once
// from (entry, side, slPct).
func (m *Manager) Open(instrument string, side market.Side, entry, size, slPct float64, at time.Time) (*Trade, error) {
	if _, exists := m.active[instrument]; exists {
		return nil, fmt.Errorf("trade: %q already has an active trade", instrument)
	}
	if size <= 0 {
		return nil, fmt.Errorf("trade: size must be positive, got %v", size)
	}
	if entry <= 0 {
		return nil, fmt.Errorf("trade: entry must be positive, got %v", entry)
	}

	stop := position.StopPrice(entry, slPct, side)
	riskPerUnit := math.Abs(entry - stop)
	if riskPerUnit <= 0 {
		return nil, fmt.Errorf("trade: degenerate stop (entry=%v stop=%v)", entry, stop)
	}

	t := &Trade{
		ID:            id.New(),
		Instrument:    instrument,
		Side:          side,
		EntryTime:     at,
		EntryPrice:    entry,
		InitialSize:   size,
		RemainingSize: size,
		StopLoss:      stop,
		SLPct:         slPct,
		RiskAmount:    riskPerUnit,
		Levels:        buildLevels(m.cfg, entry, riskPerUnit, side),
		TrailStepPct:  m.cfg.TrailStepPct,
		Status:        StatusActive,
	}
	m.active[instrument] = t
	return t, nil
}

// Active returns the active trade for an instrument, nil if none.
func (m *Manager) Active(instrument string) *Trade {
	return m.active[instrument]
}

// Closed returns all closed trades in close order.
func (m *Manager) Closed() []*Trade { return m.closed }

// ActiveCount returns the number of active trades.
func (m *Manager) ActiveCount() int { return len(m.active) }

// Update processes one price observation for the instrument's active
// trade. Order of checks per update: stop-loss, take-profit levels in
// ascending r-multiple, trailing-stop tightening, duration expiry.
// Returns the trade if this update closed it.
func (m *Manager) Update(instrument string, price float64, now time.Time) (*Trade, error) {
	t, ok := m.active[instrument]
	if !ok {
		return nil, nil
	}
	if price <= 0 {
		return nil, fmt.Errorf("trade: non-positive price %v for %q", price, instrument)
	}

	t.MaxR = math.Max(t.MaxR, risk.RMultiple(t.EntryPrice, price, stopAtEntry(t), t.Side))

	// (a) stop-loss
	if stopHit(t, price) {
		m.close(t, t.StopLoss, now, StatusStoppedOut)
		return t, nil
	}

	// (b) take-profit ladder, ascending, each level at most once
	for i := range t.Levels {
		lv := &t.Levels[i]
		if lv.Executed || !tpHit(t, lv.Price, price) {
			continue
		}
		m.executeLevel(t, i, now)
		if t.RemainingSize <= 0 {
			m.close(t, lv.Price, now, StatusTakeProfit)
			return t, nil
		}
	}

	// (c) trailing stop, tighten-only
	if t.Trailing && t.TrailStepPct > 0 {
		trail := price * (1 - t.TrailStepPct/100)
		if t.Side == market.Short {
			trail = price * (1 + t.TrailStepPct/100)
		}
		tightenStop(t, trail)
	}

	// (d) duration expiry
	if m.cfg.MaxDuration > 0 && now.Sub(t.EntryTime) > m.cfg.MaxDuration {
		m.close(t, price, now, StatusExpired)
		return t, nil
	}

	return nil, nil
}

// ForceClose closes the active trade unconditionally (market close,
// defensive close on processing errors). No-op if nothing is active.
func (m *Manager) ForceClose(instrument string, price float64, now time.Time, status Status) *Trade {
	t, ok := m.active[instrument]
	if !ok {
		return nil
	}
	if !status.Closed() {
		status = StatusClosed
	}
	m.close(t, price, now, status)
	return t
}

// executeLevel exits SizePct of the *initial* size at the level price.
// Rounding never lets cumulative exits exceed the initial size because the
// slice is capped at the remaining size.
func (m *Manager) executeLevel(t *Trade, i int, now time.Time) {
	lv := &t.Levels[i]
	lv.Executed = true

	slice := t.InitialSize * lv.SizePct / 100
	if slice > t.RemainingSize {
		slice = t.RemainingSize
	}

	pnl := (lv.Price - t.EntryPrice) * slice
	if t.Side == market.Short {
		pnl = (t.EntryPrice - lv.Price) * slice
	}

	t.RemainingSize -= slice
	t.RealizedPnL += pnl
	t.Executions = append(t.Executions, Execution{
		Level: i,
		Time:  now,
		Price: lv.Price,
		Size:  slice,
		PnL:   pnl,
	})

	if lv.MoveSLToBE {
		tightenStop(t, t.EntryPrice)
		t.Status = StatusBreakeven
	}
	if lv.TrailActivation {
		t.Trailing = true
		t.Status = StatusTrailing
	}
	if t.Status == StatusActive {
		t.Status = StatusPartialTP
	}
}

func (m *Manager) close(t *Trade, price float64, now time.Time, status Status) {
	if t.RemainingSize > 0 {
		pnl := (price - t.EntryPrice) * t.RemainingSize
		if t.Side == market.Short {
			pnl = (t.EntryPrice - price) * t.RemainingSize
		}
		t.RealizedPnL += pnl
		t.RemainingSize = 0
	}

	t.Status = status
	t.ExitTime = now
	t.ExitPrice = price

	delete(m.active, t.Instrument)
	m.closed = append(m.closed, t)
}

// stopAtEntry reconstructs the initial stop for R computation; the live
// stop moves with breakeven/trailing but R is measured off initial risk.
func stopAtEntry(t *Trade) float64 {
	if t.Side == market.Short {
		return t.EntryPrice + t.RiskAmount
	}
	return t.EntryPrice - t.RiskAmount
}

func stopHit(t *Trade, price float64) bool {
	if t.Side == market.Short {
		return price >= t.StopLoss
	}
	return price <= t.StopLoss
}

func tpHit(t *Trade, level, price float64) bool {
	if t.Side == market.Short {
		return price <= level
	}
	return price >= level
}

func tightenStop(t *Trade, stop float64) {
	if t.Side == market.Short {
		if stop < t.StopLoss {
			t.StopLoss = stop
		}
		return
	}
	if stop > t.StopLoss {
		t.StopLoss = stop
	}
}
