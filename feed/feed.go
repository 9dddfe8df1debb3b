// Package feed supplies OHLCV candle series per instrument and timeframe.
// Sources are external collaborators; a missing field in their output is a
// recoverable per-day condition downstream, not a crash here.
package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tradelab/rangebreak/market"
)

// Source yields an ordered candle sequence for one instrument over a date
// range. Implementations should be deterministic.
type Source interface {
	Candles(ctx context.Context, instrument, timeframe string, from, to time.Time) ([]market.Candle, error)
}

// Memory is a prepopulated in-memory source keyed by instrument, used in
// tests and for small replay datasets.
type Memory struct {
	data map[string][]market.Candle
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]market.Candle)}
}

// Add appends candles for an instrument.
func (m *Memory) Add(instrument string, candles ...market.Candle) {
	m.data[instrument] = append(m.data[instrument], candles...)
}

func (m *Memory) Candles(_ context.Context, instrument, _ string, from, to time.Time) ([]market.Candle, error) {
	all, ok := m.data[instrument]
	if !ok {
		return nil, fmt.Errorf("feed: no candles for %q", instrument)
	}

	var out []market.Candle
	for _, c := range all {
		if c.Time.Before(from) || !c.Time.Before(to) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Cache memoizes a Source per (instrument, timeframe, range) key. Each key
// is populated at most once; the cache is append-only so readers need no
// further coordination after load.
type Cache struct {
	src Source

	mu   sync.Mutex
	data map[string][]market.Candle
}

func NewCache(src Source) *Cache {
	return &Cache{
		src:  src,
		data: make(map[string][]market.Candle),
	}
}

func (c *Cache) Candles(ctx context.Context, instrument, timeframe string, from, to time.Time) ([]market.Candle, error) {
	key := fmt.Sprintf("%s|%s|%d|%d", instrument, timeframe, from.Unix(), to.Unix())

	c.mu.Lock()
	cached, ok := c.data[key]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	candles, err := c.src.Candles(ctx, instrument, timeframe, from, to)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.data[key] = candles
	c.mu.Unlock()

	return candles, nil
}
