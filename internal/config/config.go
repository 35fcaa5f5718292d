// Package config loads, validates, and watches the gatherer's on-disk
// JSON configuration.
package config

// Config is the root of the configuration file. The file is a JSON object
// with a single top-level "Gatherer" key.
type Config struct {
	Gatherer GathererConfig `json:"Gatherer"`
}

// GathererConfig holds the operator-editable settings.
type GathererConfig struct {
	// Symbols are the trading pairs to subscribe to. Entries are validated
	// and resolved against the exchange before use; the file is cleaned of
	// invalid entries once per process.
	Symbols []string `json:"Symbols"`

	// Postgres is the store connection string. Required.
	Postgres string `json:"Postgres"`

	// BatchSize is the number of trades committed per transaction.
	BatchSize int `json:"BatchSize"`

	// StreamURL is the websocket base the per-symbol streams are joined
	// onto.
	StreamURL string `json:"StreamURL,omitempty"`

	// RestURL is the exchange REST base for reference data.
	RestURL string `json:"RestURL,omitempty"`

	// QueueSize is the capacity of the in-memory trade queue.
	QueueSize int `json:"QueueSize,omitempty"`

	// MaxConns / MinConns bound the database pool.
	MaxConns int `json:"MaxConns,omitempty"`
	MinConns int `json:"MinConns,omitempty"`
}
