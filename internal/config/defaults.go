package config

// Default values for optional configuration fields.
const (
	DefaultStreamURL = "wss://stream.binance.com:9443/ws"
	DefaultRestURL   = "https://api.binance.com"
	DefaultBatchSize = 100
	DefaultQueueSize = 50000
	DefaultMaxConns  = 10
	DefaultMinConns  = 2
)

func (c *Config) applyDefaults() {
	g := &c.Gatherer

	if g.StreamURL == "" {
		g.StreamURL = DefaultStreamURL
	}
	if g.RestURL == "" {
		g.RestURL = DefaultRestURL
	}
	if g.BatchSize == 0 {
		g.BatchSize = DefaultBatchSize
	}
	if g.QueueSize == 0 {
		g.QueueSize = DefaultQueueSize
	}
	if g.MaxConns == 0 {
		g.MaxConns = DefaultMaxConns
	}
	if g.MinConns == 0 {
		g.MinConns = DefaultMinConns
	}
}
