package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents a single executed trade from the upstream feed.
type Trade struct {
	ID        int64           // Surrogate id, always 0 in flight; not persisted
	Symbol    string          // Uppercase trading pair (e.g., "BTCUSDT")
	Price     decimal.Decimal // Execution price
	Quantity  decimal.Decimal // Executed quantity
	TradeID   int64           // Exchange trade id, unique per symbol
	TradeTime time.Time       // Exchange event time (UTC, millisecond resolution)
}

// NewTrade constructs a Trade with the surrogate id zeroed and the event
// time normalized to UTC.
func NewTrade(symbol string, price, quantity decimal.Decimal, tradeID int64, tradeTime time.Time) Trade {
	return Trade{
		Symbol:    symbol,
		Price:     price,
		Quantity:  quantity,
		TradeID:   tradeID,
		TradeTime: tradeTime.UTC(),
	}
}

// Equal reports whether two trades carry the same values. Decimal fields
// compare by numeric value, so 2.50 equals 2.5.
func (t Trade) Equal(o Trade) bool {
	return t.ID == o.ID &&
		t.Symbol == o.Symbol &&
		t.Price.Equal(o.Price) &&
		t.Quantity.Equal(o.Quantity) &&
		t.TradeID == o.TradeID &&
		t.TradeTime.Equal(o.TradeTime)
}
