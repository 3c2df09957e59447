// Package postgres implements the signal store on PostgreSQL via pgx.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ledgermind/ledgermind/internal/model"
	"github.com/ledgermind/ledgermind/internal/signalstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS signals (
	agent_id   TEXT NOT NULL,
	date       TEXT NOT NULL,
	ticker     TEXT NOT NULL,
	action     TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	reasoning  TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (agent_id, date, ticker)
);
CREATE TABLE IF NOT EXISTS ticker_returns (
	date   TEXT NOT NULL,
	ticker TEXT NOT NULL,
	ret    DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (date, ticker)
);
CREATE TABLE IF NOT EXISTS trades (
	id       BIGSERIAL PRIMARY KEY,
	date     TEXT NOT NULL,
	ticker   TEXT NOT NULL,
	action   TEXT NOT NULL,
	quantity DOUBLE PRECISION NOT NULL,
	price    DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_date ON trades (date);
`

// Store implements signalstore.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// New connects using dsn and bootstraps the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(pctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap schema: %w", err)
	}
	return &Store{db: db}, nil
}

var _ signalstore.Store = (*Store)(nil)

func (s *Store) SaveSignal(ctx context.Context, sig model.Signal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO signals (agent_id, date, ticker, action, confidence, reasoning)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (agent_id, date, ticker) DO UPDATE SET
			action = EXCLUDED.action,
			confidence = EXCLUDED.confidence,
			reasoning = EXCLUDED.reasoning`,
		sig.AgentID, sig.Date, sig.Ticker, sig.Action, sig.Confidence, sig.Reasoning)
	return err
}

func (s *Store) SignalsForDate(ctx context.Context, date string) ([]model.Signal, error) {
	return s.querySignals(ctx, `
		SELECT agent_id, date, ticker, action, confidence, reasoning
		FROM signals WHERE date = $1 ORDER BY agent_id, ticker`, date)
}

func (s *Store) SignalsForAgent(ctx context.Context, agentID, date string) ([]model.Signal, error) {
	return s.querySignals(ctx, `
		SELECT agent_id, date, ticker, action, confidence, reasoning
		FROM signals WHERE agent_id = $1 AND date = $2 ORDER BY ticker`, agentID, date)
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
		VALUES ($1, $2, $3)
		ON CONFLICT (date, ticker) DO UPDATE SET ret = EXCLUDED.ret`,
		r.Date, r.Ticker, r.Return)
	return err
}

func (s *Store) ReturnsForDate(ctx context.Context, date string) ([]model.TickerReturn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, ticker, ret FROM ticker_returns WHERE date = $1 ORDER BY ticker`, date)
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
		VALUES ($1, $2, $3, $4, $5)`,
		t.Date, t.Ticker, t.Action, t.Quantity, t.Price)
	return err
}

func (s *Store) TradesForDate(ctx context.Context, date string) ([]model.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, ticker, action, quantity, price
		FROM trades WHERE date = $1 ORDER BY id`, date)
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
