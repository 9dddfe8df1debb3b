package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/tradelab/rangebreak/feed"
	"github.com/tradelab/rangebreak/market"
	"github.com/tradelab/rangebreak/position"
	"github.com/tradelab/rangebreak/signal"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Default().Validate())
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capital", func(c *Config) { c.Account.Capital = 0 }},
		{"bad timezone", func(c *Config) { c.Session.Timezone = "Mars/Olympus" }},
		{"bad session open", func(c *Config) { c.Session.Open = "nine-fifteen" }},
		{"clock out of range", func(c *Config) { c.Session.Close = "25:00" }},
		{"zero range duration", func(c *Config) { c.Range.DurationMinutes = 0 }},
		{"zero tick size", func(c *Config) { c.Range.TickSize = 0 }},
		{"zero timeframe", func(c *Config) { c.Backtest.TimeframeMinutes = 0 }},
		{"zero stop loss", func(c *Config) { c.Backtest.StopLossPct = 0 }},
		{"bad sizing mode", func(c *Config) { c.Position.Mode = "martingale" }},
		{"level size over 100", func(c *Config) { c.Trade.Levels[0].SizePct = 120 }},
		{"ladder sum over 100", func(c *Config) { c.Trade.Levels[0].SizePct = 60 }},
		{"zero max duration", func(c *Config) { c.Trade.MaxDurationMinutes = 0 }},
		{"csv feed without dir", func(c *Config) { c.Feed.Dir = "" }},
		{"unknown feed", func(c *Config) { c.Feed.Type = "ftp" }},
		{"sqlite journal without path", func(c *Config) { c.Journal.DBPath = "" }},
		{"unknown journal", func(c *Config) { c.Journal.Type = "mongo" }},
		{"kafka without brokers", func(c *Config) { c.Journal.Kafka.Enabled = true }},
		{"no instruments", func(c *Config) { c.Instruments = nil }},
		{"bad bias", func(c *Config) { c.Instruments[0].Bias = "sideways" }},
		{"zero instrument tick", func(c *Config) { c.Instruments[0].TickSize = 0 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg := Default()
	cfg.Account.Capital = 250000
	cfg.Strategy.Kind = "retest"
	cfg.Instruments = append(cfg.Instruments,
		InstrumentConfig{Key: "BANKNIFTY", Bias: "short", TickSize: 0.05})

	for _, name := range []string{"config.yaml", "config.json"} {
		path := filepath.Join(dir, name)
		assert.NoError(t, cfg.SaveToFile(path))

		got, err := LoadFromFile(path)
		assert.NoError(t, err)
		assert.Equal(t, 250000.0, got.Account.Capital)
		assert.Equal(t, "retest", got.Strategy.Kind)
		assert.Len(t, got.Instruments, 2)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	assert.NoError(t, err)
	assert.Equal(t, Default().Account.Capital, cfg.Account.Capital)
	assert.Equal(t, "first_entry", cfg.Strategy.Kind)
	assert.Len(t, cfg.Instruments, 1)
}

func TestBuildSession(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Session.Timezone = "Asia/Kolkata"

	session, err := cfg.BuildSession()
	assert.NoError(t, err)
	assert.Equal(t, market.ClockTime{Hour: 9, Minute: 15}, session.Open)
	assert.Equal(t, market.ClockTime{Hour: 15, Minute: 30}, session.Close)
	assert.Equal(t, "Asia/Kolkata", session.Location.String())
}

func TestBuildInstruments(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Instruments = []InstrumentConfig{
		{Key: "NIFTY", Bias: "long", TickSize: 0.05},
		{Key: "BANKNIFTY", Name: "Bank Nifty", Bias: "short", TickSize: 0.05},
	}

	out, err := cfg.BuildInstruments()
	assert.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, market.Long, out[0].Bias)
	// Name falls back to the key.
	assert.Equal(t, "NIFTY", out[0].Name)
	assert.Equal(t, market.Short, out[1].Bias)
	assert.Equal(t, "Bank Nifty", out[1].Name)
}

func TestBuildEngine(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Strategy.Kind = "two_thirty"
	cfg.Position.Mode = "fixed"
	cfg.Position.FixedSize = 25

	ec, err := cfg.BuildEngine()
	assert.NoError(t, err)

	assert.Equal(t, 100000.0, ec.InitialCapital)
	assert.Equal(t, time.Minute, ec.Timeframe)
	assert.True(t, ec.OneTradePerDay)
	assert.Equal(t, 5*time.Minute, ec.Range.Duration)
	assert.Equal(t, signal.KindTwoThirty, ec.Strategy.Kind)
	assert.Equal(t, market.ClockTime{Hour: 14, Minute: 30}, ec.Strategy.SnapshotTime)
	assert.Equal(t, position.Fixed, ec.Position.Mode)
	assert.Equal(t, 25.0, ec.Position.FixedSize)
	assert.Len(t, ec.Trade.Levels, 3)
	assert.Equal(t, 6*time.Hour, ec.Trade.MaxDuration)
	assert.Equal(t, 25.0, ec.Risk.MaxPositionPct)
	assert.NoError(t, ec.Validate())
}

func TestBuildEngine_BadKind(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Strategy.Kind = "momentum"
	_, err := cfg.BuildEngine()
	assert.Error(t, err)
}

func TestBuildFeed(t *testing.T) {
	t.Parallel()

	cfg := Default()
	src, err := cfg.BuildFeed(zap.NewNop())
	assert.NoError(t, err)
	assert.IsType(t, &feed.Enricher{}, src)

	cfg.Feed.Type = "http"
	cfg.Feed.BaseURL = "http://localhost:9000"
	src, err = cfg.BuildFeed(zap.NewNop())
	assert.NoError(t, err)
	assert.IsType(t, &feed.Enricher{}, src)
}

func TestBuildSink_NoneAndCSV(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Journal.Type = "none"
	sink, err := cfg.BuildSink(zap.NewNop())
	assert.NoError(t, err)
	assert.NotNil(t, sink)

	cfg.Journal.Type = "csv"
	cfg.Journal.Dir = t.TempDir()
	sink, err = cfg.BuildSink(zap.NewNop())
	assert.NoError(t, err)
	assert.NoError(t, sink.Close())
}

func TestBuildLogger(t *testing.T) {
	t.Parallel()

	cfg := Default()
	logger, err := cfg.BuildLogger()
	assert.NoError(t, err)
	assert.NotNil(t, logger)

	cfg.Logging.Level = "warp"
	_, err = cfg.BuildLogger()
	assert.Error(t, err)
}
