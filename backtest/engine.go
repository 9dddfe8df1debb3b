// Package backtest replays historical candles through the range, signal,
// position and trade layers for one instrument at a time, and fans out
// across instruments in parallel.
package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/mrange"
	"github.com/tradelab/rangebreak/perf"
	"github.com/tradelab/rangebreak/position"
	"github.com/tradelab/rangebreak/risk"
	"github.com/tradelab/rangebreak/signal"
	"github.com/tradelab/rangebreak/trade"
)

// Config collects everything one engine run needs. Sub-configs are
// validated by their own constructors.
type Config struct {
	InitialCapital float64
	Timeframe      time.Duration
	StopLossPct    float64 // initial stop distance as % of entry
	OneTradePerDay bool

	Session  market.Session
	Range    mrange.Config
	Strategy signal.Config
	Position position.Config
	Trade    trade.Config
	Risk     risk.Policy
	Sim      SimConfig
}

func DefaultEngineConfig(inst market.Instrument) Config {
	return Config{
		InitialCapital: 100000,
		Timeframe:      time.Minute,
		StopLossPct:    0.5,
		OneTradePerDay: true,
		Session:        market.DefaultSession(),
		Range:          mrange.DefaultConfig(),
		Strategy:       signal.DefaultConfig(inst),
		Position:       position.DefaultConfig(),
		Trade:          trade.DefaultConfig(),
		Risk:           risk.DefaultPolicy(),
		Sim:            DefaultSimConfig(),
	}
}

func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("backtest: initial capital must be positive, got %v", c.InitialCapital)
	}
	if c.Timeframe <= 0 {
		return fmt.Errorf("backtest: timeframe must be positive, got %v", c.Timeframe)
	}
	if c.StopLossPct <= 0 {
		return fmt.Errorf("backtest: stop loss pct must be positive, got %v", c.StopLossPct)
	}
	return nil
}

// Engine replays one instrument's candles day by day. Each day walks the
// same stages: reset, range build, range validation (skip the day on an
// invalid range for range-dependent strategies), signal scan, entry,
// position management and the forced market-close exit.
//
// Engines are single-use and not safe for concurrent use; the runner
// builds a fresh one per (instrument, strategy) run.
type Engine struct {
	cfg    Config
	inst   market.Instrument
	logger *zap.Logger

	calc      *mrange.Calculator
	gen       *signal.Generator
	positions *position.Manager
	trades    *trade.Manager
	sim       *Simulator

	tradedToday bool
	dayRisk     float64

	equity        []EquityPoint
	daysProcessed int
	daysSkipped   int
	partialFills  int

	lastPrice float64
	lastTime  time.Time
}

func NewEngine(cfg Config, inst market.Instrument, logger *zap.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	calc, err := mrange.NewCalculator(cfg.Range)
	if err != nil {
		return nil, err
	}

	stratCfg := cfg.Strategy
	stratCfg.Instrument = inst
	stratCfg.Session = cfg.Session
	gen, err := signal.NewGenerator(stratCfg)
	if err != nil {
		return nil, err
	}

	positions, err := position.NewManager(cfg.Position, cfg.InitialCapital)
	if err != nil {
		return nil, err
	}

	trades, err := trade.NewManager(cfg.Trade)
	if err != nil {
		return nil, err
	}

	sim, err := NewSimulator(cfg.Sim)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:       cfg,
		inst:      inst,
		logger:    logger.With(zap.String("instrument", inst.Key)),
		calc:      calc,
		gen:       gen,
		positions: positions,
		trades:    trades,
		sim:       sim,
	}, nil
}

// Run replays the candles and returns the aggregate result. The error
// return covers unrecoverable problems only; data-quality issues are
// logged and skipped per the day they occur on.
func (e *Engine) Run(ctx context.Context, candles []market.Candle) (*Result, error) {
	series, err := market.NewSeries(e.inst.Key, e.cfg.Timeframe, candles)
	if err != nil {
		return nil, err
	}
	if series.Len() == 0 {
		return nil, fmt.Errorf("backtest: no usable candles for %s", e.inst.Key)
	}
	if dropped := series.Dropped(); dropped > 0 {
		e.logger.Warn("dropped bad bars during load", zap.Int("count", dropped))
	}

	for _, day := range series.SplitDays(e.cfg.Session.Location) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.runDay(day); err != nil {
			return nil, err
		}
	}

	return e.result(series), nil
}

// runDay walks one trading day. A panic inside candle processing is
// contained here: the open trade is force-closed at the last seen price
// and the run fails with context instead of crashing sibling runs.
func (e *Engine) runDay(day market.TradingDay) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("candle processing panicked, closing defensively",
				zap.Time("day", day.Date),
				zap.Float64("last_price", e.lastPrice),
				zap.Any("panic", r))
			if t := e.trades.Active(e.inst.Key); t != nil {
				e.onTradeClosed(e.trades.ForceClose(e.inst.Key, e.lastPrice, e.lastTime, trade.StatusClosed))
			}
			err = fmt.Errorf("backtest: %s day %s: panic: %v",
				e.inst.Key, day.Date.Format("2006-01-02"), r)
		}
	}()

	e.gen.Reset()
	e.tradedToday = false
	e.dayRisk = 0

	mr := e.calc.Calculate(day, e.cfg.Session)
	if !mr.IsValid && e.gen.Kind().NeedsValidRange() {
		e.daysSkipped++
		e.logger.Debug("skipping day on invalid range",
			zap.Time("day", day.Date),
			zap.String("reason", mr.Err))
		return nil
	}
	e.daysProcessed++
	e.logger.Debug("morning range built",
		zap.Time("day", day.Date),
		zap.Float64("high", mr.High),
		zap.Float64("low", mr.Low),
		zap.Float64("long_entry", e.calc.LongEntry(mr)),
		zap.Float64("short_entry", e.calc.ShortEntry(mr)))

	for _, c := range day.Candles {
		e.lastPrice = c.Close
		e.lastTime = c.Time
		e.processCandle(c, mr)
	}

	// Forced exit at market close; overnight holds are out of scope.
	if t := e.trades.Active(e.inst.Key); t != nil {
		closeAt := e.cfg.Session.CloseAt(day.Date)
		e.onTradeClosed(e.trades.ForceClose(e.inst.Key, e.lastPrice, closeAt, trade.StatusClosed))
		e.logger.Debug("market close exit",
			zap.Time("day", day.Date),
			zap.Float64("price", e.lastPrice))
	}
	return nil
}

func (e *Engine) processCandle(c market.Candle, mr mrange.Values) {
	if t := e.trades.Active(e.inst.Key); t != nil {
		e.manageActive(t, c)
	} else if !e.cfg.OneTradePerDay || !e.tradedToday {
		e.scanEntry(c, mr)
	}
	e.appendEquity(c.Time)
}

// manageActive feeds the bar through the trade manager as three price
// observations: adverse extreme, favorable extreme, close. Running the
// adverse side first is the conservative intrabar assumption when a bar
// spans both the stop and a target.
func (e *Engine) manageActive(t *trade.Trade, c market.Candle) {
	adverse, favorable := c.Low, c.High
	if t.Side == market.Short {
		adverse, favorable = c.High, c.Low
	}

	for _, price := range []float64{adverse, favorable, c.Close} {
		closed, err := e.trades.Update(e.inst.Key, price, c.Time)
		if err != nil {
			e.logger.Warn("trade update failed", zap.Error(err))
			return
		}
		if closed != nil {
			e.onTradeClosed(closed)
			return
		}
	}

	if err := e.positions.Update(e.inst.Key, c.Close); err == nil {
		_ = e.positions.TightenStop(e.inst.Key, t.StopLoss)
	}
}

func (e *Engine) scanEntry(c market.Candle, mr mrange.Values) {
	sig, err := e.gen.ProcessCandle(c, mr)
	if err != nil {
		// Recoverable data problem in a strategy; skip the candle.
		e.logger.Warn("signal scan failed", zap.Time("candle", c.Time), zap.Error(err))
		return
	}
	if sig == nil || !sig.Type.Entry() {
		return
	}
	e.tryEnter(sig, c)
}

func (e *Engine) tryEnter(sig *signal.Signal, c market.Candle) {
	size := e.positions.Size(sig.Price, e.cfg.StopLossPct, sig.Direction)
	if size <= 0 {
		e.logger.Debug("entry rejected by sizing",
			zap.String("type", string(sig.Type)),
			zap.Float64("price", sig.Price))
		return
	}

	stop := position.StopPrice(sig.Price, e.cfg.StopLossPct, sig.Direction)
	decision := risk.Evaluate(e.cfg.Risk, risk.Intent{
		Instrument: e.inst.Key,
		Side:       sig.Direction,
		Entry:      sig.Price,
		Stop:       stop,
		Size:       size,
	}, risk.Account{
		Equity:        e.positions.Capital(),
		OpenTrades:    e.trades.ActiveCount(),
		DayRiskAmount: e.dayRisk,
	})
	if !decision.Allowed {
		e.logger.Debug("entry rejected by risk policy",
			zap.String("type", string(sig.Type)),
			zap.String("reason", decision.Reason()))
		return
	}

	fill := e.sim.Fill(sig.Direction, size, sig.Price, c.Volume)
	if fill.Size <= 0 {
		e.logger.Debug("entry unfillable at bar volume", zap.Float64("size", size))
		return
	}
	if fill.Partial {
		e.partialFills++
		e.logger.Debug("partial fill, remainder dropped",
			zap.Float64("requested", size),
			zap.Float64("filled", fill.Size))
	}

	t, err := e.trades.Open(e.inst.Key, sig.Direction, fill.Price, fill.Size, e.cfg.StopLossPct, c.Time)
	if err != nil {
		e.logger.Warn("trade open failed", zap.Error(err))
		return
	}
	if _, err := e.positions.Open(e.inst.Key, sig.Direction, fill.Size, fill.Price, e.cfg.StopLossPct, c.Time); err != nil {
		e.logger.Warn("position open failed", zap.Error(err))
	}

	e.dayRisk += risk.AmountAtRisk(fill.Size, fill.Price, t.StopLoss)
	e.tradedToday = true

	e.logger.Info("trade opened",
		zap.String("id", t.ID),
		zap.String("side", sig.Direction.String()),
		zap.String("signal", string(sig.Type)),
		zap.Float64("entry", fill.Price),
		zap.Float64("stop", t.StopLoss),
		zap.Float64("size", fill.Size))
}

func (e *Engine) onTradeClosed(t *trade.Trade) {
	if t == nil {
		return
	}
	if e.positions.Get(e.inst.Key) != nil {
		_, _ = e.positions.Close(e.inst.Key, t.ExitPrice)
	}
	e.positions.SetCapital(e.positions.Capital() + t.RealizedPnL)
	e.tradedToday = true
	e.appendEquity(t.ExitTime)

	e.logger.Info("trade closed",
		zap.String("id", t.ID),
		zap.String("status", string(t.Status)),
		zap.Float64("exit", t.ExitPrice),
		zap.Float64("pnl", t.RealizedPnL),
		zap.Float64("max_r", t.MaxR))
}

func (e *Engine) appendEquity(at time.Time) {
	equity := e.positions.Capital()
	if p := e.positions.Get(e.inst.Key); p != nil {
		equity += p.Unrealized
	}
	e.equity = append(e.equity, EquityPoint{Time: at, Equity: equity})
}

func (e *Engine) result(series *market.Series) *Result {
	r := &Result{
		Instrument:     e.inst,
		Strategy:       e.gen.Strategy(),
		InitialCapital: e.cfg.InitialCapital,
		FinalCapital:   e.positions.Capital(),
		Trades:         e.trades.Closed(),
		Equity:         e.equity,
		DaysProcessed:  e.daysProcessed,
		DaysSkipped:    e.daysSkipped,
		PartialFills:   e.partialFills,
	}
	if series.Len() > 0 {
		r.Start = series.Candles[0].Time
		r.End = series.Candles[series.Len()-1].Time
	}
	r.Summary = perf.Analyze(r.Trades, r.InitialCapital, r.EquityValues())
	return r
}
