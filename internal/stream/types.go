package stream

import (
	"context"
	"errors"
	"time"

	"github.com/rickgao/binance-data/internal/model"
	"github.com/rickgao/binance-data/internal/symbol"
)

// Errors
var (
	ErrHeartbeatTimeout = errors.New("heartbeat timeout")
	ErrNotTrade         = errors.New("not a trade event")
	ErrBadSymbol        = errors.New("invalid symbol")
)

// Sink receives decoded trades. The bounded queue implements it; Offer
// blocks when the sink is full (back-pressure).
type Sink interface {
	Offer(ctx context.Context, t model.Trade) error
}

// Resolver provides the authoritative symbol set.
type Resolver interface {
	Resolve(ctx context.Context) (symbol.Set, error)
}

// Config configures the stream client.
type Config struct {
	BaseURL          string        // Stream base (e.g., wss://stream.binance.com:9443/ws)
	HandshakeTimeout time.Duration // Dial timeout
	HeartbeatTimeout time.Duration // Max silence before the connection is considered dead
	ReconnectDelay   time.Duration // Wait between reconnect attempts
	ReadLimit        int64         // Max message size in bytes
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		HeartbeatTimeout: 60 * time.Second,
		ReconnectDelay:   5 * time.Second,
		ReadLimit:        8192,
	}
}
