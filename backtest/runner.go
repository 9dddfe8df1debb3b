package backtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tradelab/rangebreak/feed"
	"github.com/tradelab/rangebreak/internal/id"
	"github.com/tradelab/rangebreak/journal"
	"github.com/tradelab/rangebreak/market"
)

// Runner loads candles, drives engines and persists results. One Runner
// serves many runs; the candle source is wrapped in a memoizing cache so
// repeated runs over the same window hit the store once.
type Runner struct {
	cfg    Config
	src    feed.Source
	sink   journal.TradeSink
	logger *zap.Logger
}

func NewRunner(cfg Config, src feed.Source, sink journal.TradeSink, logger *zap.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("backtest: candle source is required")
	}
	if sink == nil {
		sink = journal.Discard{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:    cfg,
		src:    feed.NewCache(src),
		sink:   sink,
		logger: logger,
	}, nil
}

// RunSingle backtests one instrument over [from, to) and persists the
// closed trades and run summary.
func (r *Runner) RunSingle(ctx context.Context, inst market.Instrument, timeframe string, from, to time.Time) (*Result, error) {
	started := time.Now()

	candles, err := r.src.Candles(ctx, inst.Key, timeframe, from, to)
	if err != nil {
		return nil, fmt.Errorf("backtest: load candles for %s: %w", inst.Key, err)
	}

	engine, err := NewEngine(r.cfg, inst, r.logger)
	if err != nil {
		return nil, err
	}

	result, err := engine.Run(ctx, candles)
	if err != nil {
		return nil, err
	}
	result.RunID = id.NewRun()

	if err := r.persist(result); err != nil {
		return nil, err
	}

	r.logger.Info("run complete",
		zap.String("run_id", result.RunID),
		zap.String("instrument", inst.Key),
		zap.String("strategy", result.Strategy),
		zap.Int("trades", result.Summary.TotalTrades),
		zap.Float64("net_pnl", result.Summary.NetPnL),
		zap.Int("days_skipped", result.DaysSkipped),
		zap.Duration("elapsed", time.Since(started)))

	return result, nil
}

// RunParallel backtests each instrument concurrently, one engine per
// instrument. A failing run is isolated: its Result carries Err and the
// siblings complete normally.
func (r *Runner) RunParallel(ctx context.Context, instruments []market.Instrument, timeframe string, from, to time.Time) map[string]*Result {
	results := make(map[string]*Result, len(instruments))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, inst := range instruments {
		wg.Add(1)
		go func(inst market.Instrument) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Error("parallel run panicked",
						zap.String("instrument", inst.Key),
						zap.Any("panic", rec))
					mu.Lock()
					results[inst.Key] = &Result{
						Instrument: inst,
						Err:        fmt.Sprintf("panic: %v", rec),
					}
					mu.Unlock()
				}
			}()

			res, err := r.RunSingle(ctx, inst, timeframe, from, to)
			if err != nil {
				r.logger.Error("parallel run failed",
					zap.String("instrument", inst.Key),
					zap.Error(err))
				res = &Result{Instrument: inst, Err: err.Error()}
			}

			mu.Lock()
			results[inst.Key] = res
			mu.Unlock()
		}(inst)
	}

	wg.Wait()
	return results
}

func (r *Runner) persist(result *Result) error {
	for _, row := range result.TradeRows() {
		if err := r.sink.RecordTrade(row); err != nil {
			return fmt.Errorf("backtest: record trade: %w", err)
		}
	}
	if err := r.sink.RecordRun(result.RunRow()); err != nil {
		return fmt.Errorf("backtest: record run: %w", err)
	}
	return nil
}
