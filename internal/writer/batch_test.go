package writer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/binance-data/internal/model"
	"github.com/rickgao/binance-data/internal/queue"
	"github.com/rickgao/binance-data/internal/stats"
)

// fakeSaver records batches and can fail a configurable number of times.
type fakeSaver struct {
	mu       sync.Mutex
	batches  [][]model.Trade
	failures int
}

func (f *fakeSaver) SaveBatch(ctx context.Context, trades []model.Trade) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return 0, errors.New("connection refused")
	}
	cp := make([]model.Trade, len(trades))
	copy(cp, trades)
	f.batches = append(f.batches, cp)
	return len(trades), nil
}

func (f *fakeSaver) batchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sizes := make([]int, len(f.batches))
	for i, b := range f.batches {
		sizes[i] = len(b)
	}
	return sizes
}

func trade(id int64) model.Trade {
	return model.NewTrade("BTCUSDT", decimal.NewFromInt(100), decimal.NewFromInt(1), id, time.Unix(1700000000, 0))
}

func testConfig(batchSize int) WriterConfig {
	return WriterConfig{
		BatchSize:     batchSize,
		FlushInterval: time.Hour, // tests drive flushes explicitly unless stated
		MaxRetries:    2,
		RetryBackoff:  time.Millisecond,
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestBatchWriter_FlushesAtBatchSize(t *testing.T) {
	q := queue.New[model.Trade](100)
	store := &fakeSaver{}
	counter := &stats.Counter{}
	w := NewBatchWriter(testConfig(2), q, store, counter, nil)

	w.Start(context.Background())
	defer func() {
		q.Close()
		w.Stop(context.Background())
	}()

	ctx := context.Background()
	q.Offer(ctx, trade(1))
	q.Offer(ctx, trade(2))

	waitFor(t, func() bool { return counter.Load() == 2 }, "batch of 2 never committed")

	sizes := store.batchSizes()
	if len(sizes) != 1 || sizes[0] != 2 {
		t.Errorf("batch sizes = %v, want [2]", sizes)
	}

	m := w.Stats()
	if m.Flushes != 1 || m.Inserts != 2 {
		t.Errorf("metrics = %+v, want 1 flush / 2 inserts", m)
	}
}

func TestBatchWriter_FinalFlushOnQueueClose(t *testing.T) {
	q := queue.New[model.Trade](100)
	store := &fakeSaver{}
	counter := &stats.Counter{}
	w := NewBatchWriter(testConfig(100), q, store, counter, nil)

	w.Start(context.Background())

	ctx := context.Background()
	for i := int64(1); i <= 50; i++ {
		q.Offer(ctx, trade(i))
	}
	q.Close()

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	sizes := store.batchSizes()
	if len(sizes) != 1 || sizes[0] != 50 {
		t.Errorf("batch sizes = %v, want one partial batch of 50", sizes)
	}
	if counter.Load() != 50 {
		t.Errorf("counter = %d, want 50", counter.Load())
	}
}

func TestBatchWriter_TickerFlushesPartialBatch(t *testing.T) {
	q := queue.New[model.Trade](100)
	store := &fakeSaver{}
	counter := &stats.Counter{}
	cfg := testConfig(100)
	cfg.FlushInterval = 20 * time.Millisecond
	w := NewBatchWriter(cfg, q, store, counter, nil)

	w.Start(context.Background())
	defer func() {
		q.Close()
		w.Stop(context.Background())
	}()

	q.Offer(context.Background(), trade(1))

	waitFor(t, func() bool { return counter.Load() == 1 }, "ticker never flushed the partial batch")
}

func TestBatchWriter_RetriesThenSucceeds(t *testing.T) {
	q := queue.New[model.Trade](100)
	store := &fakeSaver{failures: 2}
	counter := &stats.Counter{}
	w := NewBatchWriter(testConfig(2), q, store, counter, nil)

	w.Start(context.Background())
	defer func() {
		q.Close()
		w.Stop(context.Background())
	}()

	ctx := context.Background()
	q.Offer(ctx, trade(1))
	q.Offer(ctx, trade(2))

	waitFor(t, func() bool { return counter.Load() == 2 }, "batch never committed after retries")

	m := w.Stats()
	if m.Errors != 2 {
		t.Errorf("Errors = %d, want 2 failed attempts", m.Errors)
	}
	if m.Dropped != 0 {
		t.Errorf("Dropped = %d, want 0", m.Dropped)
	}
}

func TestBatchWriter_DropsBatchAfterRetriesExhausted(t *testing.T) {
	q := queue.New[model.Trade](100)
	store := &fakeSaver{failures: 10} // more than MaxRetries+1
	counter := &stats.Counter{}
	w := NewBatchWriter(testConfig(2), q, store, counter, nil)

	w.Start(context.Background())

	ctx := context.Background()
	q.Offer(ctx, trade(1))
	q.Offer(ctx, trade(2))

	waitFor(t, func() bool { return w.Stats().Dropped == 2 }, "batch was never dropped")

	if counter.Load() != 0 {
		t.Errorf("counter = %d, want 0 after dropped batch", counter.Load())
	}

	// The writer keeps going: subsequent batches succeed.
	store.mu.Lock()
	store.failures = 0
	store.mu.Unlock()

	q.Offer(ctx, trade(3))
	q.Offer(ctx, trade(4))
	waitFor(t, func() bool { return counter.Load() == 2 }, "writer did not recover after a dropped batch")

	q.Close()
	w.Stop(context.Background())
}

// slowSaver delays each commit and tracks how many are in flight.
type slowSaver struct {
	delay time.Duration

	mu       sync.Mutex
	inFlight int
	overlaps int
	firstIDs []int64
}

func (s *slowSaver) SaveBatch(ctx context.Context, trades []model.Trade) (int, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > 1 {
		s.overlaps++
	}
	if len(trades) > 0 {
		s.firstIDs = append(s.firstIDs, trades[0].TradeID)
	}
	s.mu.Unlock()

	time.Sleep(s.delay)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	return len(trades), nil
}

func TestBatchWriter_CommitsAreSerialized(t *testing.T) {
	q := queue.New[model.Trade](100)
	store := &slowSaver{delay: 20 * time.Millisecond}
	counter := &stats.Counter{}

	// An aggressive ticker races partial-batch flushes against size-driven
	// ones while every commit is slow.
	cfg := testConfig(3)
	cfg.FlushInterval = time.Millisecond
	w := NewBatchWriter(cfg, q, store, counter, nil)

	w.Start(context.Background())

	ctx := context.Background()
	for i := int64(1); i <= 12; i++ {
		q.Offer(ctx, trade(i))
	}
	q.Close()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	if counter.Load() != 12 {
		t.Errorf("counter = %d, want 12", counter.Load())
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.overlaps != 0 {
		t.Errorf("observed %d concurrent SaveBatch calls, want 0", store.overlaps)
	}
	for i := 1; i < len(store.firstIDs); i++ {
		if store.firstIDs[i] <= store.firstIDs[i-1] {
			t.Errorf("batches committed out of formation order: first ids %v", store.firstIDs)
			break
		}
	}
}

func TestBatchWriter_EmptyShutdownFlushIsNoop(t *testing.T) {
	q := queue.New[model.Trade](10)
	store := &fakeSaver{}
	w := NewBatchWriter(testConfig(10), q, store, nil, nil)

	w.Start(context.Background())
	q.Close()
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	if n := len(store.batchSizes()); n != 0 {
		t.Errorf("store received %d batches, want 0", n)
	}
}

func TestDirectWriter_WritesPerTrade(t *testing.T) {
	q := queue.New[model.Trade](10)
	store := &fakeSaver{}
	counter := &stats.Counter{}
	cfg := testConfig(1)
	w := NewDirectWriter(cfg, q, store, counter, nil)

	w.Start(context.Background())

	ctx := context.Background()
	q.Offer(ctx, trade(1))
	q.Offer(ctx, trade(2))
	q.Offer(ctx, trade(3))
	q.Close()

	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	sizes := store.batchSizes()
	if len(sizes) != 3 {
		t.Fatalf("store received %d batches, want 3", len(sizes))
	}
	for i, n := range sizes {
		if n != 1 {
			t.Errorf("batch %d size = %d, want 1", i, n)
		}
	}
	if counter.Load() != 3 {
		t.Errorf("counter = %d, want 3", counter.Load())
	}
}
