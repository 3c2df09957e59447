// Package signalstore persists the daily trading context consumed by the
// reflection engine: per-agent signals, realized ticker returns, and executed
// trades.
package signalstore

import (
	"context"

	"github.com/ledgermind/ledgermind/internal/model"
)

// Store is the persistence interface for daily trading context. Dates are
// YYYY-MM-DD strings. Saving a signal or return for an existing key
// overwrites the previous value.
type Store interface {
	SaveSignal(ctx context.Context, s model.Signal) error
	SignalsForDate(ctx context.Context, date string) ([]model.Signal, error)
	SignalsForAgent(ctx context.Context, agentID, date string) ([]model.Signal, error)

	SaveReturn(ctx context.Context, r model.TickerReturn) error
	ReturnsForDate(ctx context.Context, date string) ([]model.TickerReturn, error)

	SaveTrade(ctx context.Context, t model.Trade) error
	TradesForDate(ctx context.Context, date string) ([]model.Trade, error)

	Close() error
}
