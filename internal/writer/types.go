package writer

import (
	"context"
	"time"

	"github.com/rickgao/binance-data/internal/model"
)

// Saver commits a batch of trades to the store.
type Saver interface {
	// SaveBatch persists trades atomically and returns the number of rows
	// actually inserted (batch size minus primary-key conflicts).
	SaveBatch(ctx context.Context, trades []model.Trade) (int, error)
}

// Writer drains the trade queue into the store.
type Writer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Stats() Metrics
}

// Metrics counts writer activity.
type Metrics struct {
	Flushes   int64 // successful commits
	Inserts   int64 // rows inserted
	Conflicts int64 // rows skipped by primary-key dedup
	Errors    int64 // failed commit attempts (including retried ones)
	Dropped   int64 // trades lost after retries were exhausted
}

// WriterConfig configures batching behavior.
type WriterConfig struct {
	// BatchSize is the commit size; a full accumulator flushes immediately.
	BatchSize int

	// FlushInterval bounds the latency of a partial batch.
	FlushInterval time.Duration

	// MaxRetries and RetryBackoff govern commit-failure retries before a
	// batch is dropped.
	MaxRetries   int
	RetryBackoff time.Duration
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     100,
		FlushInterval: time.Second,
		MaxRetries:    3,
		RetryBackoff:  250 * time.Millisecond,
	}
}
