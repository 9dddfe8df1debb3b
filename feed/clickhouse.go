package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/tradelab/rangebreak/market"
)

// ClickHouseConfig locates the candle store.
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
	Table    string
}

// ClickHouse reads candles from a columnar candle store over the native
// protocol. The table is keyed by (instrument, interval, ts) and carries
// the optional indicator columns.
type ClickHouse struct {
	conn clickhouse.Conn
	cfg  ClickHouseConfig
}

func NewClickHouse(cfg ClickHouseConfig) (*ClickHouse, error) {
	if cfg.Table == "" {
		cfg.Table = "candles"
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("feed: open clickhouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("feed: clickhouse ping: %w", err)
	}

	return &ClickHouse{conn: conn, cfg: cfg}, nil
}

func (s *ClickHouse) Candles(ctx context.Context, instrument, timeframe string, from, to time.Time) ([]market.Candle, error) {
	query := fmt.Sprintf(`
		SELECT ts, open, high, low, close, volume,
		       daily_atr_14, bb_upper, bb_middle, bb_lower
		FROM %s.%s
		WHERE instrument = ? AND interval = ? AND ts >= ? AND ts < ?
		ORDER BY ts`,
		s.cfg.Database, s.cfg.Table,
	)

	rows, err := s.conn.Query(ctx, query, instrument, timeframe, from, to)
	if err != nil {
		return nil, fmt.Errorf("feed: clickhouse query %s: %w", instrument, err)
	}
	defer rows.Close()

	var out []market.Candle
	for rows.Next() {
		var c market.Candle
		if err := rows.Scan(&c.Time, &c.Open, &c.High, &c.Low, &c.Close,
			&c.Volume, &c.DailyATR14, &c.BBUpper, &c.BBMiddle, &c.BBLower); err != nil {
			return nil, fmt.Errorf("feed: clickhouse scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *ClickHouse) Close() error {
	return s.conn.Close()
}
