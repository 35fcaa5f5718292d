package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// createTrades is the store schema. (symbol, trade_id) is the primary key
// so replayed trades from reconnect overlap dedup at insert time.
const createTrades = `
CREATE TABLE IF NOT EXISTS trades (
	symbol   TEXT        NOT NULL,
	price    DECIMAL     NOT NULL,
	quantity DECIMAL     NOT NULL,
	trade_id BIGINT      NOT NULL,
	utime    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (symbol, trade_id)
)`

// EnsureSchema creates the trades table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, createTrades); err != nil {
		return fmt.Errorf("create trades table: %w", err)
	}
	return nil
}
