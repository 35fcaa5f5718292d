// Package database manages the PostgreSQL connection pool and the trades
// schema.
package database
