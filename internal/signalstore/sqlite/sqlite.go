// Package sqlite implements the signal store on an embedded SQLite database.
// It is the default backend; ":memory:" is supported for tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ledgermind/ledgermind/internal/model"
	"github.com/ledgermind/ledgermind/internal/signalstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS signals (
	agent_id   TEXT NOT NULL,
	date       TEXT NOT NULL,
	ticker     TEXT NOT NULL,
	action     TEXT NOT NULL,
	confidence REAL NOT NULL,
	reasoning  TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (agent_id, date, ticker)
);
CREATE TABLE IF NOT EXISTS ticker_returns (
	date   TEXT NOT NULL,
	ticker TEXT NOT NULL,
	ret    REAL NOT NULL,
	PRIMARY KEY (date, ticker)
);
CREATE TABLE IF NOT EXISTS trades (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	date     TEXT NOT NULL,
	ticker   TEXT NOT NULL,
	action   TEXT NOT NULL,
	quantity REAL NOT NULL,
	price    REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_date ON trades (date);
`

// Store implements signalstore.Store on SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and bootstraps the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &Store{db: db}, nil
}

var _ signalstore.Store = (*Store)(nil)

func (s *Store) SaveSignal(ctx context.Context, sig model.Signal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signals (agent_id, date, ticker, action, confidence, reasoning)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (agent_id, date, ticker) DO UPDATE SET
			action = excluded.action,
			confidence = excluded.confidence,
			reasoning = excluded.reasoning`,
		sig.AgentID, sig.Date, sig.Ticker, sig.Action, sig.Confidence, sig.Reasoning)
	return err
}

func (s *Store) SignalsForDate(ctx context.Context, date string) ([]model.Signal, error) {
	return s.querySignals(ctx, `
		SELECT agent_id, date, ticker, action, confidence, reasoning
		FROM signals WHERE date = ? ORDER BY agent_id, ticker`, date)
}

func (s *Store) SignalsForAgent(ctx context.Context, agentID, date string) ([]model.Signal, error) {
	return s.querySignals(ctx, `
		SELECT agent_id, date, ticker, action, confidence, reasoning
		FROM signals WHERE agent_id = ? AND date = ? ORDER BY ticker`, agentID, date)
}

func (s *Store) querySignals(ctx context.Context, query string, args ...interface{}) ([]model.Signal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Signal
	for rows.Next() {
		var sig model.Signal
		if err := rows.Scan(&sig.AgentID, &sig.Date, &sig.Ticker, &sig.Action, &sig.Confidence, &sig.Reasoning); err != nil {
			return nil, err
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (s *Store) SaveReturn(ctx context.Context, r model.TickerReturn) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ticker_returns (date, ticker, ret)
		VALUES (?, ?, ?)
		ON CONFLICT (date, ticker) DO UPDATE SET ret = excluded.ret`,
		r.Date, r.Ticker, r.Return)
	return err
}

func (s *Store) ReturnsForDate(ctx context.Context, date string) ([]model.TickerReturn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, ticker, ret FROM ticker_returns WHERE date = ? ORDER BY ticker`, date)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.TickerReturn
	for rows.Next() {
		var r model.TickerReturn
		if err := rows.Scan(&r.Date, &r.Ticker, &r.Return); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) SaveTrade(ctx context.Context, t model.Trade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (date, ticker, action, quantity, price)
		VALUES (?, ?, ?, ?, ?)`,
		t.Date, t.Ticker, t.Action, t.Quantity, t.Price)
	return err
}

func (s *Store) TradesForDate(ctx context.Context, date string) ([]model.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, ticker, action, quantity, price
		FROM trades WHERE date = ? ORDER BY id`, date)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Trade
	for rows.Next() {
		var t model.Trade
		if err := rows.Scan(&t.Date, &t.Ticker, &t.Action, &t.Quantity, &t.Price); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
