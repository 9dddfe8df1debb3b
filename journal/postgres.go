package journal

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS trades (
	date DATE NOT NULL,
	name TEXT NOT NULL,
	pnl DOUBLE PRECISION NOT NULL,
	status TEXT NOT NULL,
	direction TEXT NOT NULL,
	trade_type TEXT NOT NULL,
	max_r_multiple DOUBLE PRECISION NOT NULL,
	entry_price DOUBLE PRECISION NOT NULL,
	entry_time TIMESTAMPTZ NOT NULL,
	exit_price DOUBLE PRECISION NOT NULL,
	exit_time TIMESTAMPTZ NOT NULL,
	stop_loss DOUBLE PRECISION NOT NULL,
	risk_amount DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (date, name, direction)
);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	instrument TEXT NOT NULL,
	strategy TEXT NOT NULL,
	start TIMESTAMPTZ NOT NULL,
	"end" TIMESTAMPTZ NOT NULL,
	initial_capital DOUBLE PRECISION NOT NULL,
	final_capital DOUBLE PRECISION NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	net_pnl DOUBLE PRECISION NOT NULL,
	return_pct DOUBLE PRECISION NOT NULL,
	win_rate DOUBLE PRECISION NOT NULL,
	profit_factor DOUBLE PRECISION NOT NULL,
	max_drawdown_pct DOUBLE PRECISION NOT NULL,
	created TIMESTAMPTZ NOT NULL
);
`

// Postgres is a sqlx-backed TradeSink with the same upsert semantics as
// the SQLite sink.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("journal: connect postgres: %w", err)
	}
	if _, err := db.Exec(pgSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: ensure schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (j *Postgres) RecordTrade(t TradeRow) error {
	_, err := j.db.NamedExec(`
		INSERT INTO trades
		(date, name, pnl, status, direction, trade_type, max_r_multiple,
		 entry_price, entry_time, exit_price, exit_time, stop_loss, risk_amount)
		VALUES (:date, :name, :pnl, :status, :direction, :trade_type, :max_r_multiple,
		 :entry_price, :entry_time, :exit_price, :exit_time, :stop_loss, :risk_amount)
		ON CONFLICT (date, name, direction) DO UPDATE SET
			pnl=EXCLUDED.pnl,
			status=EXCLUDED.status,
			trade_type=EXCLUDED.trade_type,
			max_r_multiple=EXCLUDED.max_r_multiple,
			entry_price=EXCLUDED.entry_price,
			entry_time=EXCLUDED.entry_time,
			exit_price=EXCLUDED.exit_price,
			exit_time=EXCLUDED.exit_time,
			stop_loss=EXCLUDED.stop_loss,
			risk_amount=EXCLUDED.risk_amount`,
		t,
	)
	return err
}

func (j *Postgres) RecordRun(r RunSummary) error {
	if r.Created.IsZero() {
		r.Created = time.Now().UTC()
	}
	_, err := j.db.NamedExec(`
		INSERT INTO runs
		(run_id, instrument, strategy, start, "end", initial_capital, final_capital,
		 trades, wins, losses, net_pnl, return_pct, win_rate, profit_factor,
		 max_drawdown_pct, created)
		VALUES (:run_id, :instrument, :strategy, :start, :end, :initial_capital,
		 :final_capital, :trades, :wins, :losses, :net_pnl, :return_pct, :win_rate,
		 :profit_factor, :max_drawdown_pct, :created)`,
		r,
	)
	return err
}

func (j *Postgres) Close() error {
	return j.db.Close()
}
