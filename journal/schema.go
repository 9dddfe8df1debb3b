package journal

// SQLite schema. Trades upsert by (date, name, direction); runs insert
// once per run id.
const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	date TEXT NOT NULL,
	name TEXT NOT NULL,
	pnl REAL NOT NULL,
	status TEXT NOT NULL,
	direction TEXT NOT NULL,
	trade_type TEXT NOT NULL,
	max_r_multiple REAL NOT NULL,
	entry_price REAL NOT NULL,
	entry_time DATETIME NOT NULL,
	exit_price REAL NOT NULL,
	exit_time DATETIME NOT NULL,
	stop_loss REAL NOT NULL,
	risk_amount REAL NOT NULL,
	PRIMARY KEY (date, name, direction)
);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	instrument TEXT NOT NULL,
	strategy TEXT NOT NULL,
	start DATETIME NOT NULL,
	end DATETIME NOT NULL,
	initial_capital REAL NOT NULL,
	final_capital REAL NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	net_pnl REAL NOT NULL,
	return_pct REAL NOT NULL,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	max_drawdown_pct REAL NOT NULL,
	created DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_name ON trades(name);
CREATE INDEX IF NOT EXISTS idx_runs_instrument ON runs(instrument);
`
