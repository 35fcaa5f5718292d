// Package model defines the value types shared across the gatherer.
//
// Types are plain data holders with no behavior beyond construction and
// comparison. They are created by the stream parser, pass through the
// bounded queue, and are persisted by the writers.
package model
