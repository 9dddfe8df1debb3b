package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a file-backed TradeSink with upsert-by-(date,name,direction)
// semantics for trades.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRow) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(date, name, pnl, status, direction, trade_type, max_r_multiple,
		 entry_price, entry_time, exit_price, exit_time, stop_loss, risk_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, name, direction) DO UPDATE SET
			pnl=excluded.pnl,
			status=excluded.status,
			trade_type=excluded.trade_type,
			max_r_multiple=excluded.max_r_multiple,
			entry_price=excluded.entry_price,
			entry_time=excluded.entry_time,
			exit_price=excluded.exit_price,
			exit_time=excluded.exit_time,
			stop_loss=excluded.stop_loss,
			risk_amount=excluded.risk_amount`,
		t.Date.Format("2006-01-02"), t.Name, t.PnL, t.Status, t.Direction,
		t.TradeType, t.MaxRMultiple, t.EntryPrice, t.EntryTime, t.ExitPrice,
		t.ExitTime, t.StopLoss, t.RiskAmount,
	)
	return err
}

func (j *SQLite) RecordRun(r RunSummary) error {
	if r.Created.IsZero() {
		r.Created = time.Now().UTC()
	}
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, instrument, strategy, start, end, initial_capital, final_capital,
		 trades, wins, losses, net_pnl, return_pct, win_rate, profit_factor,
		 max_drawdown_pct, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Instrument, r.Strategy, r.Start, r.End, r.InitialCapital,
		r.FinalCapital, r.Trades, r.Wins, r.Losses, r.NetPnL, r.ReturnPct,
		r.WinRate, r.ProfitFactor, r.MaxDrawdownPct, r.Created,
	)
	return err
}

// ListTradesClosedBetween returns rows with exit time in [from, to).
func (j *SQLite) ListTradesClosedBetween(from, to time.Time) ([]TradeRow, error) {
	rows, err := j.db.Query(`
		SELECT date, name, pnl, status, direction, trade_type, max_r_multiple,
		       entry_price, entry_time, exit_price, exit_time, stop_loss, risk_amount
		FROM trades
		WHERE exit_time >= ? AND exit_time < ?
		ORDER BY exit_time`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRow
	for rows.Next() {
		var t TradeRow
		var date string
		if err := rows.Scan(&date, &t.Name, &t.PnL, &t.Status, &t.Direction,
			&t.TradeType, &t.MaxRMultiple, &t.EntryPrice, &t.EntryTime,
			&t.ExitPrice, &t.ExitTime, &t.StopLoss, &t.RiskAmount); err != nil {
			return nil, err
		}
		t.Date, _ = time.Parse("2006-01-02", date)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
