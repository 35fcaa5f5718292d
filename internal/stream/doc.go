// Package stream owns the live subscription to the exchange trade feed.
//
// Client dials the combined @trade stream for the current symbol set,
// decodes trade events, and offers them to the queue. It reconnects after
// remote failures with a fixed back-off and resubscribes promptly when the
// reconfiguration controller trips the reconnect flag.
package stream
