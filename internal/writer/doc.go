// Package writer persists trades to the relational store.
//
// Store commits a batch of trades in one transaction using an
// array-expansion insert. BatchWriter drains the bounded queue into
// batches (size-driven with a max-latency flush ticker); DirectWriter is
// the per-row variant the supervisor selects when BatchSize is 1.
package writer
