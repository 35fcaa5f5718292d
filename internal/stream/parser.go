package stream

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/binance-data/internal/model"
	"github.com/rickgao/binance-data/internal/symbol"
)

// tradeEvent is the wire shape of an upstream trade message. All other
// fields are ignored.
type tradeEvent struct {
	Event     string `json:"e"` // must be "trade"
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	Quantity  string `json:"q"`
	TradeID   int64  `json:"t"`
	TradeTime int64  `json:"T"` // Unix milliseconds
}

// ParseTrade decodes a trade event payload. Non-trade events return
// ErrNotTrade; malformed payloads and invalid symbols return an error the
// caller logs and swallows. Unparseable numeric fields decode to zero
// rather than losing the trade; a missing event time defaults to now.
func ParseTrade(data []byte) (model.Trade, error) {
	var ev tradeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return model.Trade{}, fmt.Errorf("decode trade event: %w", err)
	}

	if ev.Event != "trade" {
		return model.Trade{}, ErrNotTrade
	}

	sym := strings.ToUpper(ev.Symbol)
	if !symbol.ValidStream(sym) {
		return model.Trade{}, fmt.Errorf("%w: %q", ErrBadSymbol, ev.Symbol)
	}

	ts := time.Now().UTC()
	if ev.TradeTime != 0 {
		ts = time.UnixMilli(ev.TradeTime).UTC()
	}

	return model.NewTrade(sym, parseDecimal(ev.Price), parseDecimal(ev.Quantity), ev.TradeID, ts), nil
}

// parseDecimal substitutes zero on failure; a bad numeric field is not
// worth dropping the whole trade.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
