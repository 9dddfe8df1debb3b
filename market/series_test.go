package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func bar(at time.Time, o, h, l, c float64) Candle {
	return Candle{Time: at, Open: o, High: h, Low: l, Close: c, Volume: 1000}
}

func TestNewSeries_OrdersAndDeduplicates(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)
	raw := []Candle{
		bar(base.Add(2*time.Minute), 101, 102, 100, 101),
		bar(base, 100, 101, 99, 100),
		bar(base, 100, 105, 95, 100), // duplicate timestamp, first wins
		bar(base.Add(time.Minute), 100, 102, 100, 101),
	}

	s, err := NewSeries("NIFTY", time.Minute, raw)
	assert.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 1, s.Dropped())
	assert.True(t, s.Candles[0].Time.Before(s.Candles[1].Time))
	assert.InDelta(t, 101.0, s.Candles[0].High, 1e-9)
}

func TestNewSeries_RejectsBadBars(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)

	tests := []struct {
		name string
		c    Candle
	}{
		{"zero time", bar(time.Time{}, 100, 101, 99, 100)},
		{"high below low", Candle{Time: base, Open: 100, High: 99, Low: 101, Close: 100}},
		{"non-positive price", Candle{Time: base, Open: 0, High: 101, Low: 99, Close: 100}},
		{"close above high", Candle{Time: base, Open: 100, High: 101, Low: 99, Close: 102}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := NewSeries("NIFTY", time.Minute, []Candle{tt.c})
			assert.NoError(t, err)
			assert.Equal(t, 0, s.Len())
			assert.Equal(t, 1, s.Dropped())
		})
	}
}

func TestNewSeries_RequiresPositiveTimeframe(t *testing.T) {
	t.Parallel()

	_, err := NewSeries("NIFTY", 0, nil)
	assert.Error(t, err)
}

func TestSeries_SplitDays(t *testing.T) {
	t.Parallel()

	day1 := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)
	day2 := time.Date(2024, 6, 4, 9, 15, 0, 0, time.UTC)

	s, err := NewSeries("NIFTY", time.Minute, []Candle{
		bar(day1, 100, 101, 99, 100),
		bar(day1.Add(time.Minute), 100, 101, 99, 100),
		bar(day2, 100, 101, 99, 100),
	})
	assert.NoError(t, err)

	days := s.SplitDays(time.UTC)
	assert.Len(t, days, 2)
	assert.Len(t, days[0].Candles, 2)
	assert.Len(t, days[1].Candles, 1)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), days[0].Date)
}

func TestSideFromString(t *testing.T) {
	t.Parallel()

	long, ok := SideFromString("LONG")
	assert.True(t, ok)
	assert.Equal(t, Long, long)

	short, ok := SideFromString("SHORT")
	assert.True(t, ok)
	assert.Equal(t, Short, short)

	_, ok = SideFromString("sideways")
	assert.False(t, ok)

	assert.Equal(t, "LONG", Long.String())
	assert.Equal(t, "SHORT", Short.String())
}
