package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseClockTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{"09:15", ClockTime{9, 15}, false},
		{"14:30", ClockTime{14, 30}, false},
		{"24:00", ClockTime{}, true},
		{"09:60", ClockTime{}, true},
		{"garbage", ClockTime{}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseClockTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMorningWindow_HalfOpen(t *testing.T) {
	t.Parallel()

	session := DefaultSession()
	open := time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC)

	day := TradingDay{
		Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		Candles: []Candle{
			bar(open.Add(-time.Minute), 100, 101, 99, 100), // pre-open
			bar(open, 100, 101, 99, 100),
			bar(open.Add(4*time.Minute), 100, 101, 99, 100),
			bar(open.Add(5*time.Minute), 100, 101, 99, 100), // excluded: window end
		},
	}

	window := session.MorningWindow(day, 5*time.Minute)
	assert.Len(t, window, 2)
	assert.Equal(t, open, window[0].Time)
	assert.Equal(t, open.Add(4*time.Minute), window[1].Time)
}

func TestClockTimeOn_UsesLocation(t *testing.T) {
	t.Parallel()

	loc, err := time.LoadLocation("Asia/Kolkata")
	assert.NoError(t, err)

	at := ClockTime{Hour: 9, Minute: 15}.On(time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, 9, at.Hour())
	assert.Equal(t, 15, at.Minute())
	assert.Equal(t, loc, at.Location())
}
