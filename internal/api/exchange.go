package api

import (
	"context"
	"fmt"
)

// ExchangeInfo is the subset of /api/v3/exchangeInfo the gatherer reads.
type ExchangeInfo struct {
	Timezone   string       `json:"timezone"`
	ServerTime int64        `json:"serverTime"`
	Symbols    []SymbolInfo `json:"symbols"`
}

// SymbolInfo describes one listed trading pair.
type SymbolInfo struct {
	Symbol     string `json:"symbol"`
	Status     string `json:"status"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
}

// GetExchangeInfo fetches the exchange reference data.
func (c *Client) GetExchangeInfo(ctx context.Context) (*ExchangeInfo, error) {
	var resp ExchangeInfo
	if err := c.get(ctx, "/api/v3/exchangeInfo", nil, &resp); err != nil {
		return nil, fmt.Errorf("get exchange info: %w", err)
	}
	return &resp, nil
}

// GetExchangeSymbols fetches the names of all listed trading pairs.
func (c *Client) GetExchangeSymbols(ctx context.Context) ([]string, error) {
	info, err := c.GetExchangeInfo(ctx)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		symbols = append(symbols, s.Symbol)
	}
	return symbols, nil
}
