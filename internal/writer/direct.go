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

// DirectWriter commits each trade as its own single-row batch. Selected by
// the supervisor when BatchSize is 1; behaves like a direct write path with
// the same retry and counting rules as BatchWriter.
type DirectWriter struct {
	cfg     WriterConfig
	input   *queue.Bounded[model.Trade]
	store   Saver
	counter *stats.Counter
	logger  *slog.Logger

	mu      sync.Mutex
	metrics Metrics

	wg sync.WaitGroup
}

// NewDirectWriter creates a DirectWriter.
func NewDirectWriter(
	cfg WriterConfig,
	input *queue.Bounded[model.Trade],
	store Saver,
	counter *stats.Counter,
	logger *slog.Logger,
) *DirectWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectWriter{
		cfg:     cfg,
		input:   input,
		store:   store,
		counter: counter,
		logger:  logger,
	}
}

// Start begins consuming trades.
func (w *DirectWriter) Start(ctx context.Context) error {
	w.wg.Add(1)
	go w.consumeLoop()

	w.logger.Info("direct writer started")
	return nil
}

// Stop waits for the consume loop to drain the closed queue, bounded by
// ctx. The caller must close the queue first.
func (w *DirectWriter) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("direct writer stopped")
		return nil
	case <-ctx.Done():
		w.logger.Warn("direct writer stop timed out", "queued", w.input.Len())
		return ctx.Err()
	}
}

// Stats returns current metrics.
func (w *DirectWriter) Stats() Metrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

func (w *DirectWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		trade, ok := w.input.Receive()
		if !ok {
			return
		}
		w.write(trade)
	}
}

func (w *DirectWriter) write(trade model.Trade) {
	backoff := w.cfg.RetryBackoff
	batch := []model.Trade{trade}

	for attempt := 0; attempt <= w.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}

		inserted, err := w.store.SaveBatch(context.Background(), batch)
		if err != nil {
			w.mu.Lock()
			w.metrics.Errors++
			w.mu.Unlock()
			w.logger.Error("trade commit failed",
				"error", err,
				"symbol", trade.Symbol,
				"trade_id", trade.TradeID,
			)
			continue
		}

		if w.counter != nil {
			w.counter.Add(1)
		}
		w.mu.Lock()
		w.metrics.Flushes++
		w.metrics.Inserts += int64(inserted)
		w.metrics.Conflicts += int64(1 - inserted)
		w.mu.Unlock()
		return
	}

	w.mu.Lock()
	w.metrics.Dropped++
	w.mu.Unlock()
}
