package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/binance-data/internal/model"
)

// ErrInvalidSymbol is returned when a trade with a malformed symbol reaches
// the store. The stream parser rejects these at ingress, so hitting this
// indicates a bug upstream.
var ErrInvalidSymbol = errors.New("trade has invalid symbol")

// insertTrades expands five parallel arrays into rows. Primary-key
// conflicts from reconnect replay are ignored rather than failing the
// batch.
const insertTrades = `
INSERT INTO trades (symbol, utime, trade_id, price, quantity)
SELECT s, t, i, p::numeric, q::numeric
FROM unnest($1::text[], $2::timestamptz[], $3::bigint[], $4::text[], $5::text[]) AS r(s, t, i, p, q)
ON CONFLICT (symbol, trade_id) DO NOTHING`

// Store persists trade batches to PostgreSQL.
type Store struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a Store backed by the given pool.
func NewStore(db *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// SaveBatch writes trades in one transaction. The batch is all-or-nothing:
// on any error the transaction is rolled back and the error returned. An
// empty batch is a no-op. Returns the number of rows actually inserted;
// the difference from len(trades) is primary-key conflicts.
func (s *Store) SaveBatch(ctx context.Context, trades []model.Trade) (int, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	symbols := make([]string, len(trades))
	times := make([]time.Time, len(trades))
	ids := make([]int64, len(trades))
	prices := make([]string, len(trades))
	quantities := make([]string, len(trades))

	for i, t := range trades {
		if !validStoreSymbol(t.Symbol) {
			return 0, fmt.Errorf("%w: %q", ErrInvalidSymbol, t.Symbol)
		}
		symbols[i] = t.Symbol
		times[i] = t.TradeTime
		ids[i] = t.TradeID
		prices[i] = t.Price.String()
		quantities[i] = t.Quantity.String()
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, insertTrades, symbols, times, ids, prices, quantities)
	if err != nil {
		return 0, fmt.Errorf("insert trades: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// validStoreSymbol checks the store precondition: non-empty alphanumeric.
func validStoreSymbol(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
