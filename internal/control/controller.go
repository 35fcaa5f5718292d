// Package control reacts to configuration changes by resubscribing the
// stream client to the new symbol set.
package control

import (
	"context"
	"log/slog"

	"github.com/rickgao/binance-data/internal/symbol"
)

// Resolver provides the authoritative symbol set.
type Resolver interface {
	Resolve(ctx context.Context) (symbol.Set, error)
}

// Streamer is the subscription owner being controlled.
type Streamer interface {
	// Current returns the currently-subscribed set (nil before connect).
	Current() symbol.Set

	// Reconfigure installs a new set and restarts the subscription.
	Reconfigure(set symbol.Set)
}

// Controller watches for config-change notifications and reconfigures the
// stream client when the symbol set actually changed.
type Controller struct {
	events   <-chan struct{}
	resolver Resolver
	stream   Streamer
	logger   *slog.Logger
}

// New creates a Controller consuming change notifications from events.
func New(events <-chan struct{}, resolver Resolver, stream Streamer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		events:   events,
		resolver: resolver,
		stream:   stream,
		logger:   logger,
	}
}

// Run processes notifications until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-c.events:
			if !ok {
				return nil
			}
			c.handleChange(ctx)
		}
	}
}

// handleChange re-resolves the symbol set and restarts the subscription
// if it differs from the one in use.
func (c *Controller) handleChange(ctx context.Context) {
	resolved, err := c.resolver.Resolve(ctx)
	if err != nil {
		c.logger.Error("failed to resolve symbols after config change", "error", err)
		return
	}

	current := c.stream.Current()
	if resolved.Equal(current) {
		c.logger.Debug("config changed but symbol set is unchanged",
			"symbols", resolved.Sorted(),
		)
		return
	}

	c.logger.Info("symbol set changed, restarting subscription",
		"old", current.Sorted(),
		"new", resolved.Sorted(),
	)
	c.stream.Reconfigure(resolved)
}
