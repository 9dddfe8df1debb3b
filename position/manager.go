package position

import (
	"fmt"
	"time"

	"github.com/tradelab/rangebreak/market"
)

// Manager owns open positions for one backtest run. It is not safe for
// concurrent use; each (instrument, strategy) run gets its own Manager.
type Manager struct {
	cfg     Config
	capital float64
	open    map[string]*Position
}

func NewManager(cfg Config, capital float64) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if capital <= 0 {
		return nil, fmt.Errorf("position: capital must be positive, got %v", capital)
	}
	return &Manager{
		cfg:     cfg,
		capital: capital,
		open:    make(map[string]*Position),
	}, nil
}

// Capital returns the current account capital.
func (m *Manager) Capital() float64 { return m.capital }

// SetCapital updates capital after realized P&L is booked.
func (m *Manager) SetCapital(c float64) { m.capital = c }

// Size computes the position size for an entry at price with a stop slPct
// away. Any validation failure returns the 0.0 sentinel, never an error:
// callers must treat 0.0 as a rejection.
func (m *Manager) Size(price, slPct float64, side market.Side) float64 {
	if price <= 0 || slPct < 0 {
		return 0.0
	}

	var size float64

	switch m.cfg.Mode {
	case Fixed:
		size = clamp(m.cfg.FixedSize, m.cfg.MinSize, m.cfg.MaxSize)

	case RiskPercent:
		stop := StopPrice(price, slPct, side)
		riskPerShare := price - stop
		if riskPerShare < 0 {
			riskPerShare = -riskPerShare
		}
		if riskPerShare <= 0 {
			return 0.0
		}
		riskAmount := m.capital * m.cfg.RiskPct / 100
		size = riskAmount / riskPerShare

	case AccountPercent:
		size = m.capital * m.cfg.AccountPct / 100 / price

	default:
		return 0.0
	}

	return m.validateSize(size, price)
}

// validateSize enforces capital, position value and min/max bounds.
func (m *Manager) validateSize(size, price float64) float64 {
	if size <= 0 {
		return 0.0
	}
	if m.cfg.MinSize > 0 && size < m.cfg.MinSize {
		return 0.0
	}
	if m.cfg.MaxSize > 0 && size > m.cfg.MaxSize {
		size = m.cfg.MaxSize
	}

	value := size * price
	if value > m.capital {
		return 0.0
	}
	if m.cfg.MaxPositionValue > 0 && value > m.cfg.MaxPositionValue {
		return 0.0
	}
	return size
}

// Open registers a new position. Opening over an existing key is a caller
// error.
func (m *Manager) Open(instrument string, side market.Side, size, entry, slPct float64, at time.Time) (*Position, error) {
	if _, exists := m.open[instrument]; exists {
		return nil, fmt.Errorf("position: %q already open", instrument)
	}
	if size <= 0 {
		return nil, fmt.Errorf("position: size must be positive, got %v", size)
	}

	stop := StopPrice(entry, slPct, side)
	riskPerShare := entry - stop
	if riskPerShare < 0 {
		riskPerShare = -riskPerShare
	}

	p := &Position{
		Instrument:   instrument,
		Side:         side,
		Size:         size,
		EntryPrice:   entry,
		CurrentPrice: entry,
		StopLoss:     stop,
		SLPct:        slPct,
		RiskAmount:   riskPerShare * size,
		OpenTime:     at,
	}
	m.open[instrument] = p
	return p, nil
}

// Get returns the open position for an instrument, nil if none.
func (m *Manager) Get(instrument string) *Position {
	return m.open[instrument]
}

// OpenCount returns the number of open positions.
func (m *Manager) OpenCount() int { return len(m.open) }

// Update recomputes unrealized P&L against the new price:
// (current-entry)*size for longs, (entry-current)*size for shorts.
func (m *Manager) Update(instrument string, price float64) error {
	p, ok := m.open[instrument]
	if !ok {
		return fmt.Errorf("position: %q not open", instrument)
	}
	p.CurrentPrice = price
	p.Unrealized = unrealized(p, price)
	return nil
}

// TightenStop moves the stop toward price, never loosening it.
func (m *Manager) TightenStop(instrument string, stop float64) error {
	p, ok := m.open[instrument]
	if !ok {
		return fmt.Errorf("position: %q not open", instrument)
	}

	switch p.Side {
	case market.Long:
		if stop > p.StopLoss {
			p.StopLoss = stop
		}
	case market.Short:
		if stop < p.StopLoss {
			p.StopLoss = stop
		}
	}
	return nil
}

// Close pops the position and returns the record with realized P&L folded
// into the copy. Closing twice is a caller error.
func (m *Manager) Close(instrument string, price float64) (Position, error) {
	p, ok := m.open[instrument]
	if !ok {
		return Position{}, fmt.Errorf("position: %q not open", instrument)
	}
	delete(m.open, instrument)

	p.CurrentPrice = price
	p.Unrealized = unrealized(p, price)

	return *p, nil
}

// TotalRiskAmount sums the risk of all open positions.
func (m *Manager) TotalRiskAmount() float64 {
	sum := 0.0
	for _, p := range m.open {
		sum += p.RiskAmount
	}
	return sum
}

func unrealized(p *Position, price float64) float64 {
	if p.Side == market.Short {
		return (p.EntryPrice - price) * p.Size
	}
	return (price - p.EntryPrice) * p.Size
}

func clamp(v, lo, hi float64) float64 {
	if lo > 0 && v < lo {
		v = lo
	}
	if hi > 0 && v > hi {
		v = hi
	}
	return v
}
