// Package store persists completed backtest runs to SQLite so results can be
// compared across parameter combinations without re-running.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MihutMatei/quant-backtester/types"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id              TEXT PRIMARY KEY,
    ticker          TEXT     NOT NULL,
    strategy        TEXT     NOT NULL,
    started_at      DATETIME NOT NULL,
    bars            INTEGER  NOT NULL,
    initial_capital REAL     NOT NULL,
    final_equity    REAL     NOT NULL,
    total_return    REAL     NOT NULL,
    cagr            REAL     NOT NULL,
    sharpe          REAL     NOT NULL,
    max_drawdown    REAL     NOT NULL,
    transactions    INTEGER  NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    run_id          TEXT     NOT NULL REFERENCES runs(id),
    time            DATETIME NOT NULL,
    action          TEXT     NOT NULL,
    price           TEXT     NOT NULL,
    shares          TEXT     NOT NULL,
    pnl             TEXT     NOT NULL,
    return_pct      TEXT     NOT NULL,
    portfolio_value TEXT     NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_ticker ON runs(ticker, strategy);
CREATE INDEX IF NOT EXISTS idx_tx_run      ON transactions(run_id, time);
`

// RunRecord is the stored summary of one backtest run.
type RunRecord struct {
	ID             uuid.UUID
	Ticker         string
	Strategy       string
	StartedAt      time.Time
	Bars           int
	InitialCapital float64
	FinalEquity    float64
	TotalReturn    float64
	CAGR           float64
	Sharpe         float64
	MaxDrawdown    float64
	Transactions   []types.Transaction
}

// SQLiteStore persists run records. Prices and quantities are stored as
// decimal strings to avoid float rounding on the way in and out.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", dbPath, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun writes the run summary and its transaction log in one transaction.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, ticker, strategy, started_at, bars, initial_capital,
		                   final_equity, total_return, cagr, sharpe, max_drawdown, transactions)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Ticker, run.Strategy, run.StartedAt, run.Bars,
		run.InitialCapital, run.FinalEquity, run.TotalReturn,
		run.CAGR, run.Sharpe, run.MaxDrawdown, len(run.Transactions),
	)
	if err != nil {
		return fmt.Errorf("store: insert run: %w", err)
	}

	for _, t := range run.Transactions {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO transactions (run_id, time, action, price, shares, pnl, return_pct, portfolio_value)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID.String(), t.Time, string(t.Action),
			t.Price.String(), t.Shares.String(), t.PnL.String(),
			t.ReturnPct.String(), t.PortfolioValue.String(),
		)
		if err != nil {
			return fmt.Errorf("store: insert transaction: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns returns stored run summaries for a ticker, newest first. The
// transaction logs are not loaded; use GetTransactions for one run.
func (s *SQLiteStore) ListRuns(ctx context.Context, ticker string) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ticker, strategy, started_at, bars, initial_capital,
		        final_equity, total_return, cagr, sharpe, max_drawdown
		 FROM runs WHERE ticker = ? ORDER BY started_at DESC`, ticker)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var id string
		if err := rows.Scan(&id, &r.Ticker, &r.Strategy, &r.StartedAt, &r.Bars,
			&r.InitialCapital, &r.FinalEquity, &r.TotalReturn,
			&r.CAGR, &r.Sharpe, &r.MaxDrawdown); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("store: parse run id: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetTransactions loads the transaction log of one run in chronological
// order.
func (s *SQLiteStore) GetTransactions(ctx context.Context, runID uuid.UUID) ([]types.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT time, action, price, shares, pnl, return_pct, portfolio_value
		 FROM transactions WHERE run_id = ? ORDER BY time, rowid`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("store: get transactions: %w", err)
	}
	defer rows.Close()

	var out []types.Transaction
	for rows.Next() {
		var t types.Transaction
		var action, price, shares, pnl, retPct, value string
		if err := rows.Scan(&t.Time, &action, &price, &shares, &pnl, &retPct, &value); err != nil {
			return nil, fmt.Errorf("store: scan transaction: %w", err)
		}
		t.Action = types.Action(action)
		if t.Price, err = parseDecimal(price); err != nil {
			return nil, err
		}
		if t.Shares, err = parseDecimal(shares); err != nil {
			return nil, err
		}
		if t.PnL, err = parseDecimal(pnl); err != nil {
			return nil, err
		}
		if t.ReturnPct, err = parseDecimal(retPct); err != nil {
			return nil, err
		}
		if t.PortfolioValue, err = parseDecimal(value); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("store: parse decimal %q: %w", s, err)
	}
	return d, nil
}
