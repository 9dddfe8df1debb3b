// Package config holds the complete runtime configuration: account,
// session clock, range construction, strategy parameters, trade and risk
// management, the fill simulator, data feed and journal wiring.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Account     AccountConfig      `json:"account" yaml:"account" mapstructure:"account"`
	Session     SessionConfig      `json:"session" yaml:"session" mapstructure:"session"`
	Range       RangeConfig        `json:"range" yaml:"range" mapstructure:"range"`
	Strategy    StrategyConfig     `json:"strategy" yaml:"strategy" mapstructure:"strategy"`
	Backtest    BacktestConfig     `json:"backtest" yaml:"backtest" mapstructure:"backtest"`
	Trade       TradeConfig        `json:"trade" yaml:"trade" mapstructure:"trade"`
	Risk        RiskConfig         `json:"risk" yaml:"risk" mapstructure:"risk"`
	Position    PositionConfig     `json:"position" yaml:"position" mapstructure:"position"`
	Simulator   SimulatorConfig    `json:"simulator" yaml:"simulator" mapstructure:"simulator"`
	Feed        FeedConfig         `json:"feed" yaml:"feed" mapstructure:"feed"`
	Journal     JournalConfig      `json:"journal" yaml:"journal" mapstructure:"journal"`
	Server      ServerConfig       `json:"server" yaml:"server" mapstructure:"server"`
	Logging     LoggingConfig      `json:"logging" yaml:"logging" mapstructure:"logging"`
	Instruments []InstrumentConfig `json:"instruments" yaml:"instruments" mapstructure:"instruments"`
}

// AccountConfig initializes the simulated account.
type AccountConfig struct {
	ID       string  `json:"id" yaml:"id" mapstructure:"id"`
	Currency string  `json:"currency" yaml:"currency" mapstructure:"currency"`
	Capital  float64 `json:"capital" yaml:"capital" mapstructure:"capital"`
}

// SessionConfig is the exchange session clock.
type SessionConfig struct {
	Open     string `json:"open" yaml:"open" mapstructure:"open"`    // "HH:MM"
	Close    string `json:"close" yaml:"close" mapstructure:"close"` // "HH:MM"
	Timezone string `json:"timezone" yaml:"timezone" mapstructure:"timezone"`
}

// RangeConfig controls morning-range construction.
type RangeConfig struct {
	DurationMinutes int     `json:"duration_minutes" yaml:"duration_minutes" mapstructure:"duration_minutes"`
	BufferTicks     float64 `json:"buffer_ticks" yaml:"buffer_ticks" mapstructure:"buffer_ticks"`
	TickSize        float64 `json:"tick_size" yaml:"tick_size" mapstructure:"tick_size"`
}

// StrategyConfig selects and parameterizes the entry strategy.
type StrategyConfig struct {
	Kind                string             `json:"kind" yaml:"kind" mapstructure:"kind"`
	BreakoutBufferPct   float64            `json:"breakout_buffer_pct" yaml:"breakout_buffer_pct" mapstructure:"breakout_buffer_pct"`
	SnapshotTime        string             `json:"snapshot_time" yaml:"snapshot_time" mapstructure:"snapshot_time"`
	SnapshotBufferPct   float64            `json:"snapshot_buffer_pct" yaml:"snapshot_buffer_pct" mapstructure:"snapshot_buffer_pct"`
	RetestMaxAdversePct float64            `json:"retest_max_adverse_pct" yaml:"retest_max_adverse_pct" mapstructure:"retest_max_adverse_pct"`
	SqueezeTolerancePct float64            `json:"squeeze_tolerance_pct" yaml:"squeeze_tolerance_pct" mapstructure:"squeeze_tolerance_pct"`
	SqueezeMinDuration  int                `json:"squeeze_min_duration" yaml:"squeeze_min_duration" mapstructure:"squeeze_min_duration"`
	SqueezeMaxDuration  int                `json:"squeeze_max_duration" yaml:"squeeze_max_duration" mapstructure:"squeeze_max_duration"`
	ReferenceWidths     map[string]float64 `json:"reference_widths,omitempty" yaml:"reference_widths,omitempty" mapstructure:"reference_widths"`
}

// BacktestConfig controls the replay loop.
type BacktestConfig struct {
	TimeframeMinutes int     `json:"timeframe_minutes" yaml:"timeframe_minutes" mapstructure:"timeframe_minutes"`
	StopLossPct      float64 `json:"stop_loss_pct" yaml:"stop_loss_pct" mapstructure:"stop_loss_pct"`
	OneTradePerDay   bool    `json:"one_trade_per_day" yaml:"one_trade_per_day" mapstructure:"one_trade_per_day"`
}

// LevelConfig is one rung of the take-profit ladder.
type LevelConfig struct {
	RMultiple       float64 `json:"r_multiple" yaml:"r_multiple" mapstructure:"r_multiple"`
	SizePct         float64 `json:"size_pct" yaml:"size_pct" mapstructure:"size_pct"`
	MoveSLToBE      bool    `json:"move_sl_to_be" yaml:"move_sl_to_be" mapstructure:"move_sl_to_be"`
	TrailActivation bool    `json:"trail_activation" yaml:"trail_activation" mapstructure:"trail_activation"`
}

// TradeConfig controls trade lifecycle management.
type TradeConfig struct {
	Levels             []LevelConfig `json:"levels,omitempty" yaml:"levels,omitempty" mapstructure:"levels"`
	TrailStepPct       float64       `json:"trail_step_pct" yaml:"trail_step_pct" mapstructure:"trail_step_pct"`
	MaxDurationMinutes int           `json:"max_duration_minutes" yaml:"max_duration_minutes" mapstructure:"max_duration_minutes"`
}

// RiskConfig mirrors the policy ceilings.
type RiskConfig struct {
	MaxTradeRiskPct      float64 `json:"max_trade_risk_pct" yaml:"max_trade_risk_pct" mapstructure:"max_trade_risk_pct"`
	MaxPositionPct       float64 `json:"max_position_pct" yaml:"max_position_pct" mapstructure:"max_position_pct"`
	MaxDailyRiskPct      float64 `json:"max_daily_risk_pct" yaml:"max_daily_risk_pct" mapstructure:"max_daily_risk_pct"`
	MaxCorrelatedRiskPct float64 `json:"max_correlated_risk_pct" yaml:"max_correlated_risk_pct" mapstructure:"max_correlated_risk_pct"`
	MaxOpenTrades        int     `json:"max_open_trades" yaml:"max_open_trades" mapstructure:"max_open_trades"`
}

// PositionConfig controls sizing.
type PositionConfig struct {
	Mode             string  `json:"mode" yaml:"mode" mapstructure:"mode"` // fixed, risk_percent, account_percent
	FixedSize        float64 `json:"fixed_size" yaml:"fixed_size" mapstructure:"fixed_size"`
	RiskPct          float64 `json:"risk_pct" yaml:"risk_pct" mapstructure:"risk_pct"`
	AccountPct       float64 `json:"account_pct" yaml:"account_pct" mapstructure:"account_pct"`
	MinSize          float64 `json:"min_size" yaml:"min_size" mapstructure:"min_size"`
	MaxSize          float64 `json:"max_size" yaml:"max_size" mapstructure:"max_size"`
	MaxPositionValue float64 `json:"max_position_value" yaml:"max_position_value" mapstructure:"max_position_value"`
}

// SimulatorConfig controls the fill model.
type SimulatorConfig struct {
	SlippagePct       float64 `json:"slippage_pct" yaml:"slippage_pct" mapstructure:"slippage_pct"`
	ImpactCoeff       float64 `json:"impact_coeff" yaml:"impact_coeff" mapstructure:"impact_coeff"`
	MaxVolumeFraction float64 `json:"max_volume_fraction" yaml:"max_volume_fraction" mapstructure:"max_volume_fraction"`
}

// FeedConfig selects the candle source.
type FeedConfig struct {
	Type       string           `json:"type" yaml:"type" mapstructure:"type"` // csv, http, clickhouse
	Dir        string           `json:"dir,omitempty" yaml:"dir,omitempty" mapstructure:"dir"`
	BaseURL    string           `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
	ClickHouse ClickHouseConfig `json:"clickhouse,omitempty" yaml:"clickhouse,omitempty" mapstructure:"clickhouse"`
}

// ClickHouseConfig locates the columnar candle store.
type ClickHouseConfig struct {
	Addr     string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Database string `json:"database" yaml:"database" mapstructure:"database"`
	Username string `json:"username" yaml:"username" mapstructure:"username"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`
	Table    string `json:"table" yaml:"table" mapstructure:"table"`
}

// JournalConfig selects the trade sink.
type JournalConfig struct {
	Type   string      `json:"type" yaml:"type" mapstructure:"type"` // none, csv, sqlite, postgres
	Dir    string      `json:"dir,omitempty" yaml:"dir,omitempty" mapstructure:"dir"`
	DBPath string      `json:"db_path,omitempty" yaml:"db_path,omitempty" mapstructure:"db_path"`
	DSN    string      `json:"dsn,omitempty" yaml:"dsn,omitempty" mapstructure:"dsn"`
	Kafka  KafkaConfig `json:"kafka,omitempty" yaml:"kafka,omitempty" mapstructure:"kafka"`
}

// KafkaConfig publishes closed trades and run summaries to a broker in
// addition to the primary sink.
type KafkaConfig struct {
	Enabled     bool     `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Brokers     []string `json:"brokers,omitempty" yaml:"brokers,omitempty" mapstructure:"brokers"`
	TradesTopic string   `json:"trades_topic,omitempty" yaml:"trades_topic,omitempty" mapstructure:"trades_topic"`
	RunsTopic   string   `json:"runs_topic,omitempty" yaml:"runs_topic,omitempty" mapstructure:"runs_topic"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"` // debug, release
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level       string `json:"level" yaml:"level" mapstructure:"level"`
	Development bool   `json:"development" yaml:"development" mapstructure:"development"`
}

// InstrumentConfig describes one tradable instrument.
type InstrumentConfig struct {
	Key      string  `json:"key" yaml:"key" mapstructure:"key"`
	Name     string  `json:"name" yaml:"name" mapstructure:"name"`
	Bias     string  `json:"bias" yaml:"bias" mapstructure:"bias"` // long or short
	TickSize float64 `json:"tick_size" yaml:"tick_size" mapstructure:"tick_size"`
}

// Default returns a configuration with reference parameters.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "SIM-001",
			Currency: "INR",
			Capital:  100000,
		},
		Session: SessionConfig{
			Open:     "09:15",
			Close:    "15:30",
			Timezone: "UTC",
		},
		Range: RangeConfig{
			DurationMinutes: 5,
			BufferTicks:     2,
			TickSize:        0.05,
		},
		Strategy: StrategyConfig{
			Kind:                "first_entry",
			BreakoutBufferPct:   0.07,
			SnapshotTime:        "14:30",
			SnapshotBufferPct:   0.03,
			RetestMaxAdversePct: 0.5,
			SqueezeTolerancePct: 0.1,
			SqueezeMinDuration:  3,
			SqueezeMaxDuration:  30,
		},
		Backtest: BacktestConfig{
			TimeframeMinutes: 1,
			StopLossPct:      0.5,
			OneTradePerDay:   true,
		},
		Trade: TradeConfig{
			Levels: []LevelConfig{
				{RMultiple: 3, SizePct: 50, MoveSLToBE: true},
				{RMultiple: 5, SizePct: 25, TrailActivation: true},
				{RMultiple: 7, SizePct: 25},
			},
			TrailStepPct:       0.3,
			MaxDurationMinutes: 360,
		},
		Risk: RiskConfig{
			MaxTradeRiskPct: 1.0,
			MaxPositionPct:  25.0,
			MaxDailyRiskPct: 3.0,
			MaxOpenTrades:   5,
		},
		Position: PositionConfig{
			Mode:    "risk_percent",
			RiskPct: 1.0,
			MinSize: 1,
			MaxSize: 100000,
		},
		Simulator: SimulatorConfig{
			SlippagePct:       0.03,
			ImpactCoeff:       0.1,
			MaxVolumeFraction: 0.1,
		},
		Feed: FeedConfig{
			Type: "csv",
			Dir:  "./data",
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./trades.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
			Mode: "release",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Instruments: []InstrumentConfig{
			{Key: "NIFTY", Name: "Nifty 50", Bias: "long", TickSize: 0.05},
		},
	}
}

// Load reads configuration from an optional file merged over defaults,
// with RANGEBREAK_* environment variables taking precedence over both.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RANGEBREAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

// defaults seeds viper so env-only operation works without a file.
func defaults(v *viper.Viper) {
	d := Default()
	raw, err := yaml.Marshal(d)
	if err != nil {
		return
	}
	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return
	}
	for k, val := range m {
		v.SetDefault(k, val)
	}
}

// LoadFromFile parses a YAML or JSON file directly, without env overrides.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("config: parse %s (tried YAML and JSON): %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML (.yaml/.yml) or indented JSON.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate checks the whole document eagerly so a bad config fails at
// startup, not mid-run.
func (c *Config) Validate() error {
	if c.Account.Capital <= 0 {
		return fmt.Errorf("account.capital must be positive")
	}
	if _, err := time.LoadLocation(c.Session.Timezone); err != nil {
		return fmt.Errorf("session.timezone: %w", err)
	}
	for _, field := range []struct{ name, v string }{
		{"session.open", c.Session.Open},
		{"session.close", c.Session.Close},
	} {
		if _, err := parseClock(field.v); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}
	if c.Range.DurationMinutes <= 0 {
		return fmt.Errorf("range.duration_minutes must be positive")
	}
	if c.Range.TickSize <= 0 {
		return fmt.Errorf("range.tick_size must be positive")
	}
	if c.Backtest.TimeframeMinutes <= 0 {
		return fmt.Errorf("backtest.timeframe_minutes must be positive")
	}
	if c.Backtest.StopLossPct <= 0 {
		return fmt.Errorf("backtest.stop_loss_pct must be positive")
	}

	switch c.Position.Mode {
	case "fixed", "risk_percent", "account_percent":
	default:
		return fmt.Errorf("position.mode must be fixed, risk_percent or account_percent")
	}

	sum := 0.0
	for i, lv := range c.Trade.Levels {
		if lv.RMultiple <= 0 {
			return fmt.Errorf("trade.levels[%d].r_multiple must be positive", i)
		}
		if lv.SizePct <= 0 || lv.SizePct > 100 {
			return fmt.Errorf("trade.levels[%d].size_pct out of (0,100]", i)
		}
		sum += lv.SizePct
	}
	if sum > 100 {
		return fmt.Errorf("trade.levels size_pct sum %.1f exceeds 100", sum)
	}
	if c.Trade.MaxDurationMinutes <= 0 {
		return fmt.Errorf("trade.max_duration_minutes must be positive")
	}

	switch c.Feed.Type {
	case "csv":
		if c.Feed.Dir == "" {
			return fmt.Errorf("feed.dir required for csv feed")
		}
	case "http":
		if c.Feed.BaseURL == "" {
			return fmt.Errorf("feed.base_url required for http feed")
		}
	case "clickhouse":
		if c.Feed.ClickHouse.Addr == "" {
			return fmt.Errorf("feed.clickhouse.addr required for clickhouse feed")
		}
	default:
		return fmt.Errorf("feed.type must be csv, http or clickhouse")
	}

	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal.dir required for csv journal")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite journal")
		}
	case "postgres":
		if c.Journal.DSN == "" {
			return fmt.Errorf("journal.dsn required for postgres journal")
		}
	default:
		return fmt.Errorf("journal.type must be none, csv, sqlite or postgres")
	}
	if c.Journal.Kafka.Enabled && len(c.Journal.Kafka.Brokers) == 0 {
		return fmt.Errorf("journal.kafka.brokers required when kafka is enabled")
	}

	if len(c.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}
	for i, inst := range c.Instruments {
		if inst.Key == "" {
			return fmt.Errorf("instruments[%d].key is required", i)
		}
		if inst.Bias != "long" && inst.Bias != "short" {
			return fmt.Errorf("instruments[%d].bias must be long or short", i)
		}
		if inst.TickSize <= 0 {
			return fmt.Errorf("instruments[%d].tick_size must be positive", i)
		}
	}
	return nil
}

func parseClock(s string) (struct{ h, m int }, error) {
	var out struct{ h, m int }
	if _, err := fmt.Sscanf(s, "%d:%d", &out.h, &out.m); err != nil {
		return out, fmt.Errorf("bad clock time %q", s)
	}
	if out.h < 0 || out.h > 23 || out.m < 0 || out.m > 59 {
		return out, fmt.Errorf("clock time %q out of range", s)
	}
	return out, nil
}
