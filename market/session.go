package market

import (
	"fmt"
	"time"
)

// Session describes the trading session clock for an exchange.
type Session struct {
	Open     ClockTime
	Close    ClockTime
	Location *time.Location
}

// ClockTime is a wall-clock time of day.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return ClockTime{}, fmt.Errorf("market: bad clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return ClockTime{}, fmt.Errorf("market: clock time %q out of range", s)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

func (ct ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", ct.Hour, ct.Minute)
}

// On returns the clock time anchored to the given date in loc.
func (ct ClockTime) On(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	d := date.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), ct.Hour, ct.Minute, 0, 0, loc)
}

// DefaultSession is an equity intraday session, 09:15-15:30.
func DefaultSession() Session {
	return Session{
		Open:     ClockTime{Hour: 9, Minute: 15},
		Close:    ClockTime{Hour: 15, Minute: 30},
		Location: time.UTC,
	}
}

// OpenAt returns the session open timestamp for the given date.
func (s Session) OpenAt(date time.Time) time.Time {
	return s.Open.On(date, s.Location)
}

// CloseAt returns the session close timestamp for the given date.
func (s Session) CloseAt(date time.Time) time.Time {
	return s.Close.On(date, s.Location)
}

// MorningWindow returns candles with Time in
// [session open, session open + duration) for one trading day.
func (s Session) MorningWindow(day TradingDay, duration time.Duration) []Candle {
	open := s.OpenAt(day.Date)
	end := open.Add(duration)

	var out []Candle
	for _, c := range day.Candles {
		if c.Time.Before(open) || !c.Time.Before(end) {
			continue
		}
		out = append(out, c)
	}
	return out
}
