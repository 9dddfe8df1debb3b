package trade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tradelab/rangebreak/market"
)

var entryAt = time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

func ladderManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Levels: []LevelConfig{
			{RMultiple: 3, SizePct: 50, MoveSLToBE: true},
			{RMultiple: 5, SizePct: 25, TrailActivation: true},
			{RMultiple: 7, SizePct: 25},
		},
		TrailStepPct: 0.5,
		MaxDuration:  6 * time.Hour,
	})
	assert.NoError(t, err)
	return m
}

func TestOpen_PricesLevelsOnce(t *testing.T) {
	t.Parallel()

	m := ladderManager(t)

	// entry=100, sl 0.5% -> stop=99.5, risk=0.5/unit
	tr, err := m.Open("NIFTY", market.Long, 100, 1000, 0.5, entryAt)
	assert.NoError(t, err)
	assert.NotEmpty(t, tr.ID)
	assert.InDelta(t, 99.5, tr.StopLoss, 1e-9)
	assert.InDelta(t, 0.5, tr.RiskAmount, 1e-9)
	assert.Equal(t, StatusActive, tr.Status)

	// tp = entry + risk*R: 101.5, 102.5, 103.5, ascending
	assert.InDelta(t, 101.5, tr.Levels[0].Price, 1e-9)
	assert.InDelta(t, 102.5, tr.Levels[1].Price, 1e-9)
	assert.InDelta(t, 103.5, tr.Levels[2].Price, 1e-9)

	_, err = m.Open("NIFTY", market.Long, 100, 1000, 0.5, entryAt)
	assert.Error(t, err)
}

func TestUpdate_StopLossClosesAtStop(t *testing.T) {
	t.Parallel()

	m := ladderManager(t)
	_, err := m.Open("NIFTY", market.Long, 100, 1000, 0.5, entryAt)
	assert.NoError(t, err)

	closed, err := m.Update("NIFTY", 99.4, entryAt.Add(time.Minute))
	assert.NoError(t, err)
	assert.NotNil(t, closed)
	assert.Equal(t, StatusStoppedOut, closed.Status)
	// Exit books at the stop price, not the observed price.
	assert.InDelta(t, 99.5, closed.ExitPrice, 1e-9)
	assert.InDelta(t, -500.0, closed.RealizedPnL, 1e-9)
	assert.Equal(t, 0, m.ActiveCount())
}

func TestUpdate_FirstLevelMovesStopToBreakeven(t *testing.T) {
	t.Parallel()

	m := ladderManager(t)
	_, err := m.Open("NIFTY", market.Long, 100, 1000, 0.5, entryAt)
	assert.NoError(t, err)

	closed, err := m.Update("NIFTY", 101.5, entryAt.Add(time.Minute))
	assert.NoError(t, err)
	assert.Nil(t, closed)

	tr := m.Active("NIFTY")
	assert.Equal(t, StatusBreakeven, tr.Status)
	assert.True(t, tr.Levels[0].Executed)
	assert.InDelta(t, 500.0, tr.RemainingSize, 1e-9)
	// 50% of initial at 101.5: (101.5-100)*500 = 750
	assert.InDelta(t, 750.0, tr.RealizedPnL, 1e-9)
	assert.InDelta(t, 100.0, tr.StopLoss, 1e-9)
	assert.InDelta(t, 3.0, tr.MaxR, 1e-9)
}

func TestUpdate_LevelsExecuteAtMostOnce(t *testing.T) {
	t.Parallel()

	m := ladderManager(t)
	_, err := m.Open("NIFTY", market.Long, 100, 1000, 0.5, entryAt)
	assert.NoError(t, err)

	_, err = m.Update("NIFTY", 101.5, entryAt.Add(time.Minute))
	assert.NoError(t, err)
	pnlAfterFirst := m.Active("NIFTY").RealizedPnL

	// Same price again: the executed level is never re-evaluated.
	_, err = m.Update("NIFTY", 101.5, entryAt.Add(2*time.Minute))
	assert.NoError(t, err)
	assert.InDelta(t, pnlAfterFirst, m.Active("NIFTY").RealizedPnL, 1e-9)
	assert.Len(t, m.Active("NIFTY").Executions, 1)
}

func TestUpdate_FullLadderClosesTakeProfit(t *testing.T) {
	t.Parallel()

	m := ladderManager(t)
	_, err := m.Open("NIFTY", market.Long, 100, 1000, 0.5, entryAt)
	assert.NoError(t, err)

	// One sweep through all three levels.
	closed, err := m.Update("NIFTY", 103.5, entryAt.Add(time.Minute))
	assert.NoError(t, err)
	assert.NotNil(t, closed)
	assert.Equal(t, StatusTakeProfit, closed.Status)
	assert.InDelta(t, 0.0, closed.RemainingSize, 1e-9)
	// 500@101.5 + 250@102.5 + 250@103.5 = 750 + 625 + 875 = 2250
	assert.InDelta(t, 2250.0, closed.RealizedPnL, 1e-9)
	assert.Len(t, closed.Executions, 3)
}

func TestUpdate_TrailingTightensOnly(t *testing.T) {
	t.Parallel()

	m := ladderManager(t)
	_, err := m.Open("NIFTY", market.Long, 100, 1000, 0.5, entryAt)
	assert.NoError(t, err)

	// Hit level 2 (5R at 102.5) to activate trailing.
	_, err = m.Update("NIFTY", 102.5, entryAt.Add(time.Minute))
	assert.NoError(t, err)

	tr := m.Active("NIFTY")
	assert.Equal(t, StatusTrailing, tr.Status)
	assert.True(t, tr.Trailing)
	// Trail at 102.5*(1-0.005) = 101.9875
	assert.InDelta(t, 102.5*0.995, tr.StopLoss, 1e-9)

	// Price falls back but stays above the trail: stop must not loosen.
	_, err = m.Update("NIFTY", 102.0, entryAt.Add(2*time.Minute))
	assert.NoError(t, err)
	assert.InDelta(t, 102.5*0.995, m.Active("NIFTY").StopLoss, 1e-9)

	// New high tightens further.
	_, err = m.Update("NIFTY", 103.0, entryAt.Add(3*time.Minute))
	assert.NoError(t, err)
	assert.InDelta(t, 103.0*0.995, m.Active("NIFTY").StopLoss, 1e-9)
}

func TestUpdate_DurationExpiry(t *testing.T) {
	t.Parallel()

	m, err := NewManager(Config{
		Levels:       []LevelConfig{{RMultiple: 3, SizePct: 100}},
		TrailStepPct: 0.5,
		MaxDuration:  30 * time.Minute,
	})
	assert.NoError(t, err)

	_, err = m.Open("NIFTY", market.Long, 100, 1000, 0.5, entryAt)
	assert.NoError(t, err)

	closed, err := m.Update("NIFTY", 100.2, entryAt.Add(31*time.Minute))
	assert.NoError(t, err)
	assert.NotNil(t, closed)
	assert.Equal(t, StatusExpired, closed.Status)
	assert.InDelta(t, 200.0, closed.RealizedPnL, 1e-9)
}

func TestUpdate_ShortSide(t *testing.T) {
	t.Parallel()

	m := ladderManager(t)

	// entry=100 short, sl 0.5% -> stop=100.5, tp1 = 100 - 0.5*3 = 98.5
	tr, err := m.Open("NIFTY", market.Short, 100, 1000, 0.5, entryAt)
	assert.NoError(t, err)
	assert.InDelta(t, 100.5, tr.StopLoss, 1e-9)
	assert.InDelta(t, 98.5, tr.Levels[0].Price, 1e-9)

	_, err = m.Update("NIFTY", 98.5, entryAt.Add(time.Minute))
	assert.NoError(t, err)
	active := m.Active("NIFTY")
	assert.Equal(t, StatusBreakeven, active.Status)
	assert.InDelta(t, 750.0, active.RealizedPnL, 1e-9)

	closed, err := m.Update("NIFTY", 100.6, entryAt.Add(2*time.Minute))
	assert.NoError(t, err)
	assert.NotNil(t, closed)
	assert.Equal(t, StatusStoppedOut, closed.Status)
}

func TestForceClose(t *testing.T) {
	t.Parallel()

	m := ladderManager(t)
	_, err := m.Open("NIFTY", market.Long, 100, 1000, 0.5, entryAt)
	assert.NoError(t, err)

	closed := m.ForceClose("NIFTY", 100.8, entryAt.Add(time.Hour), StatusClosed)
	assert.NotNil(t, closed)
	assert.Equal(t, StatusClosed, closed.Status)
	assert.InDelta(t, 800.0, closed.RealizedPnL, 1e-9)
	assert.Equal(t, 0, m.ActiveCount())
	assert.Len(t, m.Closed(), 1)

	assert.Nil(t, m.ForceClose("NIFTY", 100, entryAt, StatusClosed))
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"no levels", Config{TrailStepPct: 0.5, MaxDuration: time.Hour}},
		{"sizes over 100", Config{
			Levels:      []LevelConfig{{RMultiple: 3, SizePct: 60}, {RMultiple: 5, SizePct: 60}},
			MaxDuration: time.Hour,
		}},
		{"zero r multiple", Config{
			Levels:      []LevelConfig{{RMultiple: 0, SizePct: 50}},
			MaxDuration: time.Hour,
		}},
		{"zero duration", Config{
			Levels: []LevelConfig{{RMultiple: 3, SizePct: 50}},
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Error(t, tt.cfg.Validate())
		})
	}
}
