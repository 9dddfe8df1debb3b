package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tradelab/rangebreak/market"
)

// CSVSource reads one file per instrument from a directory:
// <dir>/<instrument>.csv with a header row. Required columns:
// time, open, high, low, close, volume. Optional columns:
// daily_atr_14, bb_upper, bb_middle, bb_lower.
//
// Bad rows are skipped and counted, matching the recoverable-data-error
// contract; only unreadable files fail the load.
type CSVSource struct {
	Dir string

	badRows int
}

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

// BadRows reports rows skipped during the last load.
func (s *CSVSource) BadRows() int { return s.badRows }

func (s *CSVSource) Candles(_ context.Context, instrument, _ string, from, to time.Time) ([]market.Candle, error) {
	path := filepath.Join(s.Dir, instrument+".csv")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("feed: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("feed: read header of %s: %w", path, err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"time", "open", "high", "low", "close", "volume"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("feed: %s missing required column %q", path, required)
		}
	}

	s.badRows = 0
	var out []market.Candle

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.badRows++
			continue
		}

		c, ok := parseRow(rec, col)
		if !ok {
			s.badRows++
			continue
		}
		if c.Time.Before(from) || !c.Time.Before(to) {
			continue
		}
		out = append(out, c)
	}

	return out, nil
}

func parseRow(rec []string, col map[string]int) (market.Candle, bool) {
	get := func(name string) (float64, bool) {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return 0, false
		}
		v, err := strconv.ParseFloat(rec[i], 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	opt := func(name string) float64 {
		v, _ := get(name)
		return v
	}

	ti := col["time"]
	if ti >= len(rec) {
		return market.Candle{}, false
	}
	ts, err := parseTime(rec[ti])
	if err != nil {
		return market.Candle{}, false
	}

	o, ok1 := get("open")
	h, ok2 := get("high")
	l, ok3 := get("low")
	cl, ok4 := get("close")
	v, ok5 := get("volume")
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return market.Candle{}, false
	}

	return market.Candle{
		Time:       ts,
		Open:       o,
		High:       h,
		Low:        l,
		Close:      cl,
		Volume:     v,
		DailyATR14: opt("daily_atr_14"),
		BBUpper:    opt("bb_upper"),
		BBMiddle:   opt("bb_middle"),
		BBLower:    opt("bb_lower"),
	}, true
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC(), nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("feed: unparseable time %q", s)
}
