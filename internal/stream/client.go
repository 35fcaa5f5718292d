package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/binance-data/internal/queue"
	"github.com/rickgao/binance-data/internal/symbol"
)

// Client maintains the websocket subscription to the trade feed. At most
// one connection is active at a time.
type Client struct {
	cfg      Config
	resolver Resolver
	sink     Sink
	logger   *slog.Logger

	// Shared with the reconfiguration controller: the currently-subscribed
	// set and the flag signalling the subscription must be rebuilt.
	current   atomic.Pointer[symbol.Set]
	reconnect atomic.Bool

	reconnects atomic.Int64

	// Per-connection cancellation, recreated on every (re)connect.
	mu         sync.Mutex
	connCancel context.CancelFunc
}

// NewClient creates a stream client.
func NewClient(cfg Config, resolver Resolver, sink Sink, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:      cfg,
		resolver: resolver,
		sink:     sink,
		logger:   logger,
	}
}

// Current returns the symbol set the active subscription was built from,
// or nil before the first connection.
func (c *Client) Current() symbol.Set {
	p := c.current.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Reconnects returns the number of reconnects since startup. Reconfigure
// restarts are not counted; only failures are.
func (c *Client) Reconnects() int64 {
	return c.reconnects.Load()
}

// Reconfigure installs a new symbol set and signals the receive loop to
// tear down the current subscription. Called by the reconfiguration
// controller; the client resubscribes on its next loop iteration.
func (c *Client) Reconfigure(set symbol.Set) {
	c.current.Store(&set)
	c.reconnect.Store(true)

	c.mu.Lock()
	if c.connCancel != nil {
		c.connCancel()
	}
	c.mu.Unlock()
}

// Run maintains the subscription until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		set, err := c.resolver.Resolve(ctx)
		if err != nil {
			c.logger.Error("failed to resolve symbol set", "error", err)
			if !c.sleep(ctx, c.cfg.ReconnectDelay) {
				return nil
			}
			continue
		}
		if len(set) == 0 {
			c.logger.Warn("no valid symbols configured, waiting")
			if !c.sleep(ctx, c.cfg.ReconnectDelay) {
				return nil
			}
			continue
		}
		c.current.Store(&set)

		url := StreamURL(c.cfg.BaseURL, set)
		c.logger.Info("opening stream", "symbols", len(set), "url", url)

		dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
		conn, _, err := dialer.DialContext(ctx, url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("dial failed", "error", err)
			c.reconnects.Add(1)
			if !c.sleep(ctx, c.cfg.ReconnectDelay) {
				return nil
			}
			continue
		}

		c.reconnect.Store(false)
		connCtx, cancel := context.WithCancel(ctx)
		c.setConnCancel(cancel)

		err = c.receiveLoop(connCtx, conn)
		cancel()

		switch {
		case ctx.Err() != nil:
			c.closeNormal(conn)
			c.logger.Info("stream client shutting down")
			return nil

		case c.reconnect.Load():
			c.closeNormal(conn)
			c.logger.Info("resubscribing with updated symbol set")

		default:
			if err != nil {
				c.logger.Warn("stream error, reconnecting",
					"error", err,
					"delay", c.cfg.ReconnectDelay,
				)
			} else {
				c.logger.Warn("stream closed by remote, reconnecting",
					"delay", c.cfg.ReconnectDelay,
				)
			}
			conn.Close()
			c.reconnects.Add(1)
			if !c.sleep(ctx, c.cfg.ReconnectDelay) {
				return nil
			}
		}
	}

	return nil
}

// receiveLoop reads frames until the connection dies, the reconnect flag
// is set, or ctx is cancelled. A nil return with the flag clear means the
// remote closed the stream.
func (c *Client) receiveLoop(ctx context.Context, conn *websocket.Conn) error {
	conn.SetReadLimit(c.cfg.ReadLimit)

	// Unblock the pending read when the connection scope is cancelled.
	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now())
	})
	defer stop()

	lastMsg := time.Now()

	for {
		if c.reconnect.Load() || ctx.Err() != nil {
			return nil
		}

		conn.SetReadDeadline(lastMsg.Add(c.cfg.HeartbeatTimeout))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || c.reconnect.Load() {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				c.logger.Info("received close frame",
					"code", closeErr.Code,
					"text", closeErr.Text,
				)
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return fmt.Errorf("%w: no frames for %s", ErrHeartbeatTimeout, c.cfg.HeartbeatTimeout)
			}
			return err
		}

		lastMsg = time.Now()

		switch msgType {
		case websocket.TextMessage:
			c.handleMessage(ctx, data)
		case websocket.BinaryMessage:
			c.logger.Debug("ignoring binary frame", "bytes", len(data))
		}
	}
}

// handleMessage decodes one payload and offers the trade to the sink.
// Parse failures never tear down the connection.
func (c *Client) handleMessage(ctx context.Context, data []byte) {
	trade, err := ParseTrade(data)
	if err != nil {
		if errors.Is(err, ErrNotTrade) {
			c.logger.Debug("skipping non-trade message")
		} else {
			c.logger.Warn("discarding malformed message", "error", err)
		}
		return
	}

	if err := c.sink.Offer(ctx, trade); err != nil {
		// Cancellation and queue closure during shutdown are expected.
		if !errors.Is(err, context.Canceled) && !errors.Is(err, queue.ErrClosed) {
			c.logger.Warn("failed to enqueue trade", "error", err)
		}
	}
}

// closeNormal sends a normal-closure frame before closing the socket.
func (c *Client) closeNormal(conn *websocket.Conn) {
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Shutdown"),
		time.Now().Add(time.Second),
	)
	conn.Close()
}

// sleep waits for d, returning false if ctx was cancelled first.
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (c *Client) setConnCancel(cancel context.CancelFunc) {
	c.mu.Lock()
	c.connCancel = cancel
	c.mu.Unlock()
}
