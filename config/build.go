package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tradelab/rangebreak/backtest"
	"github.com/tradelab/rangebreak/feed"
	"github.com/tradelab/rangebreak/journal"
	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/mrange"
	"github.com/tradelab/rangebreak/position"
	"github.com/tradelab/rangebreak/risk"
	"github.com/tradelab/rangebreak/signal"
	"github.com/tradelab/rangebreak/trade"
)

// BuildSession translates the session section.
func (c *Config) BuildSession() (market.Session, error) {
	loc, err := time.LoadLocation(c.Session.Timezone)
	if err != nil {
		return market.Session{}, fmt.Errorf("config: session timezone: %w", err)
	}
	open, err := market.ParseClockTime(c.Session.Open)
	if err != nil {
		return market.Session{}, err
	}
	close, err := market.ParseClockTime(c.Session.Close)
	if err != nil {
		return market.Session{}, err
	}
	return market.Session{Open: open, Close: close, Location: loc}, nil
}

// BuildInstruments translates the instrument list.
func (c *Config) BuildInstruments() ([]market.Instrument, error) {
	out := make([]market.Instrument, 0, len(c.Instruments))
	for _, ic := range c.Instruments {
		bias, ok := market.SideFromString(strings.ToUpper(ic.Bias))
		if !ok {
			return nil, fmt.Errorf("config: instrument %s: bad bias %q", ic.Key, ic.Bias)
		}
		name := ic.Name
		if name == "" {
			name = ic.Key
		}
		out = append(out, market.Instrument{
			Key:      ic.Key,
			Name:     name,
			Bias:     bias,
			TickSize: ic.TickSize,
		})
	}
	return out, nil
}

// BuildEngine translates the document into one engine configuration.
// The per-instrument fields of the strategy config are filled by the
// engine itself.
func (c *Config) BuildEngine() (backtest.Config, error) {
	session, err := c.BuildSession()
	if err != nil {
		return backtest.Config{}, err
	}

	kind, err := signal.ParseKind(c.Strategy.Kind)
	if err != nil {
		return backtest.Config{}, err
	}
	snapshot, err := market.ParseClockTime(c.Strategy.SnapshotTime)
	if err != nil {
		return backtest.Config{}, err
	}

	var widths signal.WidthSource
	if len(c.Strategy.ReferenceWidths) > 0 {
		widths = signal.StaticWidths(c.Strategy.ReferenceWidths)
	}

	levels := make([]trade.LevelConfig, 0, len(c.Trade.Levels))
	for _, lv := range c.Trade.Levels {
		levels = append(levels, trade.LevelConfig{
			RMultiple:       lv.RMultiple,
			SizePct:         lv.SizePct,
			MoveSLToBE:      lv.MoveSLToBE,
			TrailActivation: lv.TrailActivation,
		})
	}

	mode, err := position.ParseSizingMode(c.Position.Mode)
	if err != nil {
		return backtest.Config{}, err
	}

	return backtest.Config{
		InitialCapital: c.Account.Capital,
		Timeframe:      time.Duration(c.Backtest.TimeframeMinutes) * time.Minute,
		StopLossPct:    c.Backtest.StopLossPct,
		OneTradePerDay: c.Backtest.OneTradePerDay,
		Session:        session,
		Range: mrange.Config{
			Duration:    time.Duration(c.Range.DurationMinutes) * time.Minute,
			BufferTicks: c.Range.BufferTicks,
			TickSize:    c.Range.TickSize,
		},
		Strategy: signal.Config{
			Kind:                kind,
			BreakoutBufferPct:   c.Strategy.BreakoutBufferPct,
			SnapshotTime:        snapshot,
			SnapshotBufferPct:   c.Strategy.SnapshotBufferPct,
			RetestMaxAdversePct: c.Strategy.RetestMaxAdversePct,
			SqueezeTolerancePct: c.Strategy.SqueezeTolerancePct,
			SqueezeMinDuration:  c.Strategy.SqueezeMinDuration,
			SqueezeMaxDuration:  c.Strategy.SqueezeMaxDuration,
			Widths:              widths,
			Session:             session,
		},
		Position: position.Config{
			Mode:             mode,
			FixedSize:        c.Position.FixedSize,
			RiskPct:          c.Position.RiskPct,
			AccountPct:       c.Position.AccountPct,
			MinSize:          c.Position.MinSize,
			MaxSize:          c.Position.MaxSize,
			MaxPositionValue: c.Position.MaxPositionValue,
		},
		Trade: trade.Config{
			Levels:       levels,
			TrailStepPct: c.Trade.TrailStepPct,
			MaxDuration:  time.Duration(c.Trade.MaxDurationMinutes) * time.Minute,
		},
		Risk: risk.Policy{
			MaxTradeRiskPct:      c.Risk.MaxTradeRiskPct,
			MaxPositionPct:       c.Risk.MaxPositionPct,
			MaxDailyRiskPct:      c.Risk.MaxDailyRiskPct,
			MaxCorrelatedRiskPct: c.Risk.MaxCorrelatedRiskPct,
			MaxOpenTrades:        c.Risk.MaxOpenTrades,
		},
		Sim: backtest.SimConfig{
			SlippagePct:       c.Simulator.SlippagePct,
			ImpactCoeff:       c.Simulator.ImpactCoeff,
			MaxVolumeFraction: c.Simulator.MaxVolumeFraction,
		},
	}, nil
}

// BuildFeed constructs the configured candle source, wrapped in the
// indicator enricher so stores without precomputed ATR or Bollinger
// columns still feed range-dependent strategies.
func (c *Config) BuildFeed(logger *zap.Logger) (feed.Source, error) {
	var src feed.Source
	switch c.Feed.Type {
	case "csv":
		src = feed.NewCSVSource(c.Feed.Dir)
	case "http":
		src = feed.NewHTTPSource(c.Feed.BaseURL, logger)
	case "clickhouse":
		ch, err := feed.NewClickHouse(feed.ClickHouseConfig{
			Addr:     c.Feed.ClickHouse.Addr,
			Database: c.Feed.ClickHouse.Database,
			Username: c.Feed.ClickHouse.Username,
			Password: c.Feed.ClickHouse.Password,
			Table:    c.Feed.ClickHouse.Table,
		})
		if err != nil {
			return nil, err
		}
		src = ch
	default:
		return nil, fmt.Errorf("config: unknown feed type %q", c.Feed.Type)
	}
	return feed.NewEnricher(src), nil
}

// BuildSink constructs the configured trade sink, fanned out to Kafka
// when publishing is enabled.
func (c *Config) BuildSink(logger *zap.Logger) (journal.TradeSink, error) {
	var primary journal.TradeSink
	var err error

	switch c.Journal.Type {
	case "none":
		primary = journal.Discard{}
	case "csv":
		primary, err = journal.NewCSV(
			filepath.Join(c.Journal.Dir, "trades.csv"),
			filepath.Join(c.Journal.Dir, "runs.csv"))
	case "sqlite":
		primary, err = journal.NewSQLite(c.Journal.DBPath)
	case "postgres":
		primary, err = journal.NewPostgres(c.Journal.DSN)
	default:
		return nil, fmt.Errorf("config: unknown journal type %q", c.Journal.Type)
	}
	if err != nil {
		return nil, err
	}

	if !c.Journal.Kafka.Enabled {
		return primary, nil
	}

	publisher := journal.NewKafka(
		c.Journal.Kafka.Brokers,
		c.Journal.Kafka.TradesTopic,
		c.Journal.Kafka.RunsTopic,
		logger)
	return journal.Tee(primary, publisher), nil
}

// BuildLogger constructs the structured logger from the logging section.
func (c *Config) BuildLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if c.Logging.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	if c.Logging.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Logging.Level)
		if err != nil {
			return nil, fmt.Errorf("config: logging level: %w", err)
		}
		cfg.Level = level
	}
	return cfg.Build()
}
