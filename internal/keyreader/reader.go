// Package keyreader implements the operator statistics command: pressing
// space on standard input logs the persisted-trade counter.
package keyreader

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/rickgao/binance-data/internal/stats"
)

// pollInterval is how often buffered keypresses are checked.
const pollInterval = 100 * time.Millisecond

// ReconnectSource reports how many times the upstream has reconnected.
type ReconnectSource interface {
	Reconnects() int64
}

// Reader polls input for the space key and reports the counters.
type Reader struct {
	in         io.Reader
	counter    *stats.Counter
	reconnects ReconnectSource
	logger     *slog.Logger

	keys chan byte
}

// New creates a Reader. in is normally os.Stdin.
func New(in io.Reader, counter *stats.Counter, reconnects ReconnectSource, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		in:         in,
		counter:    counter,
		reconnects: reconnects,
		logger:     logger,
		keys:       make(chan byte, 64),
	}
}

// Run polls for keypresses until ctx is cancelled.
func (r *Reader) Run(ctx context.Context) error {
	// The read itself blocks, so it lives in its own goroutine feeding the
	// poll loop. It ends with the process; a blocked stdin read cannot be
	// interrupted portably.
	go r.readInput()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.drainKeys()
		}
	}
}

func (r *Reader) readInput() {
	buf := make([]byte, 1)
	for {
		n, err := r.in.Read(buf)
		if n > 0 {
			select {
			case r.keys <- buf[0]:
			default:
			}
		}
		if err != nil {
			return
		}
	}
}

func (r *Reader) drainKeys() {
	for {
		select {
		case key := <-r.keys:
			if key == ' ' {
				r.report()
			}
		default:
			return
		}
	}
}

func (r *Reader) report() {
	attrs := []any{"trades_persisted", r.counter.Load()}
	if r.reconnects != nil {
		attrs = append(attrs, "reconnects", r.reconnects.Reconnects())
	}
	r.logger.Info("statistics", attrs...)
}
