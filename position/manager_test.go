package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tradelab/rangebreak/market"
)

func riskPctManager(t *testing.T, capital float64) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Mode:    RiskPercent,
		RiskPct: 1.0,
		MinSize: 1,
		MaxSize: 100000,
	}, capital)
	assert.NoError(t, err)
	return m
}

func TestStopPrice(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 99.5, StopPrice(100, 0.5, market.Long), 1e-9)
	assert.InDelta(t, 100.5, StopPrice(100, 0.5, market.Short), 1e-9)
}

func TestSize_RiskPercent(t *testing.T) {
	t.Parallel()

	m := riskPctManager(t, 100000)

	// capital=100000, risk 1% = 1000; entry=50, sl 1% -> stop=49.5,
	// risk/share=0.5 -> 2000 units
	got := m.Size(50, 1.0, market.Long)
	assert.InDelta(t, 2000.0, got, 1e-9)
}

func TestSize_Fixed(t *testing.T) {
	t.Parallel()

	m, err := NewManager(Config{
		Mode:      Fixed,
		FixedSize: 150,
		MinSize:   10,
		MaxSize:   100,
	}, 100000)
	assert.NoError(t, err)

	// Fixed size clipped to MaxSize.
	assert.InDelta(t, 100.0, m.Size(50, 0.5, market.Long), 1e-9)
}

func TestSize_AccountPercent(t *testing.T) {
	t.Parallel()

	m, err := NewManager(Config{
		Mode:       AccountPercent,
		AccountPct: 10,
		MinSize:    1,
	}, 100000)
	assert.NoError(t, err)

	// 10% of 100000 = 10000 at price 50 -> 200 units
	assert.InDelta(t, 200.0, m.Size(50, 0.5, market.Long), 1e-9)
}

func TestSize_RejectionSentinel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func(t *testing.T) float64
	}{
		{"non-positive price", func(t *testing.T) float64 {
			return riskPctManager(t, 100000).Size(0, 0.5, market.Long)
		}},
		{"negative sl pct", func(t *testing.T) float64 {
			return riskPctManager(t, 100000).Size(50, -1, market.Long)
		}},
		{"degenerate stop", func(t *testing.T) float64 {
			return riskPctManager(t, 100000).Size(50, 0, market.Long)
		}},
		{"below min size", func(t *testing.T) float64 {
			// risk 1% of 1000 = 10; entry 50, sl 1% -> 20 units, below min 50
			m, err := NewManager(Config{Mode: RiskPercent, RiskPct: 1, MinSize: 50}, 1000)
			assert.NoError(t, err)
			return m.Size(50, 1.0, market.Long)
		}},
		{"exceeds capital", func(t *testing.T) float64 {
			// risk 1% of 1000 = 10; entry 50, sl 0.1% -> risk/share 0.05
			// -> 200 units -> value 10000 > capital 1000
			return riskPctManager(t, 1000).Size(50, 0.1, market.Long)
		}},
		{"exceeds max position value", func(t *testing.T) float64 {
			m, err := NewManager(Config{
				Mode: Fixed, FixedSize: 100, MinSize: 1, MaxPositionValue: 100,
			}, 100000)
			assert.NoError(t, err)
			return m.Size(50, 0.5, market.Long)
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, 0.0, tt.fn(t))
		})
	}
}

func TestManager_OpenUpdateClose(t *testing.T) {
	t.Parallel()

	m := riskPctManager(t, 100000)
	at := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

	p, err := m.Open("NIFTY", market.Long, 2000, 50, 1.0, at)
	assert.NoError(t, err)
	assert.InDelta(t, 49.5, p.StopLoss, 1e-9)
	assert.InDelta(t, 1000.0, p.RiskAmount, 1e-9)
	assert.Equal(t, 1, m.OpenCount())
	assert.InDelta(t, 1000.0, m.TotalRiskAmount(), 1e-9)

	// Double open is a caller error.
	_, err = m.Open("NIFTY", market.Long, 100, 50, 1.0, at)
	assert.Error(t, err)

	assert.NoError(t, m.Update("NIFTY", 51))
	assert.InDelta(t, 2000.0, m.Get("NIFTY").Unrealized, 1e-9)

	closed, err := m.Close("NIFTY", 51)
	assert.NoError(t, err)
	assert.InDelta(t, 2000.0, closed.Unrealized, 1e-9)
	assert.Equal(t, 0, m.OpenCount())

	_, err = m.Close("NIFTY", 51)
	assert.Error(t, err)
}

func TestManager_ShortUnrealized(t *testing.T) {
	t.Parallel()

	m := riskPctManager(t, 100000)
	at := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

	_, err := m.Open("NIFTY", market.Short, 1000, 50, 1.0, at)
	assert.NoError(t, err)

	assert.NoError(t, m.Update("NIFTY", 49))
	assert.InDelta(t, 1000.0, m.Get("NIFTY").Unrealized, 1e-9)
}

func TestManager_TightenStopNeverLoosens(t *testing.T) {
	t.Parallel()

	m := riskPctManager(t, 100000)
	at := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

	_, err := m.Open("NIFTY", market.Long, 1000, 50, 1.0, at)
	assert.NoError(t, err)

	assert.NoError(t, m.TightenStop("NIFTY", 49.8))
	assert.InDelta(t, 49.8, m.Get("NIFTY").StopLoss, 1e-9)

	// Loosening attempt is ignored.
	assert.NoError(t, m.TightenStop("NIFTY", 49.0))
	assert.InDelta(t, 49.8, m.Get("NIFTY").StopLoss, 1e-9)
}

func TestParseSizingMode(t *testing.T) {
	t.Parallel()

	mode, err := ParseSizingMode("risk_percent")
	assert.NoError(t, err)
	assert.Equal(t, RiskPercent, mode)

	_, err = ParseSizingMode("martingale")
	assert.Error(t, err)
}
