// Package stats holds the process-wide ingestion counters.
package stats

import "sync/atomic"

// Counter is a monotonic count of successfully persisted trades. Writers
// add the batch size after each successful commit; reads are lock-free.
type Counter struct {
	n atomic.Int64
}

// Add increments the counter by n.
func (c *Counter) Add(n int64) {
	c.n.Add(n)
}

// Load returns the current value.
func (c *Counter) Load() int64 {
	return c.n.Load()
}
