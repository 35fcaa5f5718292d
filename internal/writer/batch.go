package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/binance-data/internal/model"
	"github.com/rickgao/binance-data/internal/queue"
	"github.com/rickgao/binance-data/internal/stats"
)

// BatchWriter consumes trades from the queue and commits them in batches.
//
// Scheduling is size-driven: a full accumulator flushes immediately. A
// secondary flush ticker bounds the latency of partial batches. The
// consume loop is the queue's single reader; it exits after the queue is
// closed and drained, flushing whatever remains.
type BatchWriter struct {
	cfg     WriterConfig
	input   *queue.Bounded[model.Trade]
	store   Saver
	counter *stats.Counter
	logger  *slog.Logger

	// Accumulator shared between the consume loop and the flush ticker.
	batch   []model.Trade
	batchMu sync.Mutex

	// Serializes commits: the consume loop, the flush ticker, and the stop
	// path may all reach the store, but batches must commit one at a time in
	// formation order.
	flushMu sync.Mutex

	flushTicker *time.Ticker
	metrics     Metrics

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBatchWriter creates a BatchWriter.
func NewBatchWriter(
	cfg WriterConfig,
	input *queue.Bounded[model.Trade],
	store Saver,
	counter *stats.Counter,
	logger *slog.Logger,
) *BatchWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchWriter{
		cfg:     cfg,
		input:   input,
		store:   store,
		counter: counter,
		logger:  logger,
		batch:   make([]model.Trade, 0, cfg.BatchSize),
	}
}

// Start begins consuming trades and writing to the store.
func (w *BatchWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("batch writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop waits for the consume loop to drain the closed queue, bounded by
// ctx. The caller must close the queue first.
func (w *BatchWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping batch writer")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		w.logger.Info("batch writer stopped")
	case <-ctx.Done():
		w.logger.Warn("batch writer stop timed out", "queued", w.input.Len())
		err = ctx.Err()
	}

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	// Safety net; the consume loop normally flushed already. flushMu keeps
	// this from overlapping a flush still in flight after a timeout.
	w.flush()

	return err
}

// Stats returns current metrics.
func (w *BatchWriter) Stats() Metrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// consumeLoop is the queue's single reader. It accumulates trades and
// flushes on size; end-of-stream triggers the final flush.
func (w *BatchWriter) consumeLoop() {
	defer w.wg.Done()
	defer w.cancel()

	for {
		trade, ok := w.input.Receive()
		if !ok {
			w.flush()
			return
		}

		w.batchMu.Lock()
		w.batch = append(w.batch, trade)
		shouldFlush := len(w.batch) >= w.cfg.BatchSize
		w.batchMu.Unlock()

		if shouldFlush {
			w.flush()
		}
	}
}

// flushLoop bounds partial-batch latency.
func (w *BatchWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

// flush commits the current accumulator, retrying transient store errors
// before dropping the batch. Trades are counted as persisted only after a
// successful commit. flushMu is held across the commit so a ticker flush
// cannot overlap a size-driven one, and so a batch under retry finishes
// before the next batch is taken.
func (w *BatchWriter) flush() {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of the current batch
	batch := w.batch
	w.batch = make([]model.Trade, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	inserted, err := w.saveWithRetry(batch)
	if err != nil {
		w.logger.Error("dropping batch after retries exhausted",
			"error", err,
			"count", len(batch),
		)
		w.batchMu.Lock()
		w.metrics.Dropped += int64(len(batch))
		w.batchMu.Unlock()
		return
	}

	if w.counter != nil {
		w.counter.Add(int64(len(batch)))
	}

	w.batchMu.Lock()
	w.metrics.Flushes++
	w.metrics.Inserts += int64(inserted)
	w.metrics.Conflicts += int64(len(batch) - inserted)
	w.batchMu.Unlock()

	w.logger.Debug("flushed trades",
		"count", len(batch),
		"conflicts", len(batch)-inserted,
		"duration", time.Since(start),
	)
}

// saveWithRetry attempts the commit with exponential backoff. Context
// cancellation during shutdown still allows the in-flight attempt to use a
// background context so the final flush can land.
func (w *BatchWriter) saveWithRetry(batch []model.Trade) (int, error) {
	backoff := w.cfg.RetryBackoff
	var lastErr error

	for attempt := 0; attempt <= w.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			w.logger.Warn("retrying batch commit",
				"attempt", attempt,
				"backoff", backoff,
				"count", len(batch),
			)
			time.Sleep(backoff)
			backoff *= 2
		}

		inserted, err := w.store.SaveBatch(context.Background(), batch)
		if err == nil {
			return inserted, nil
		}

		lastErr = err
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		w.logger.Error("batch commit failed", "error", err, "count", len(batch))
	}

	return 0, lastErr
}
