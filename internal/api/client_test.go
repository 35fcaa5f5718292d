package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const exchangeInfoBody = `{
	"timezone": "UTC",
	"serverTime": 1700000000000,
	"symbols": [
		{"symbol": "BTCUSDT", "status": "TRADING", "baseAsset": "BTC", "quoteAsset": "USDT"},
		{"symbol": "ETHUSDT", "status": "TRADING", "baseAsset": "ETH", "quoteAsset": "USDT"}
	]
}`

func TestGetExchangeSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/exchangeInfo" {
			t.Errorf("path = %q, want /api/v3/exchangeInfo", r.URL.Path)
		}
		w.Write([]byte(exchangeInfoBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	symbols, err := c.GetExchangeSymbols(context.Background())
	if err != nil {
		t.Fatalf("GetExchangeSymbols error: %v", err)
	}

	if len(symbols) != 2 || symbols[0] != "BTCUSDT" || symbols[1] != "ETHUSDT" {
		t.Errorf("symbols = %v, want [BTCUSDT ETHUSDT]", symbols)
	}
}

func TestGetExchangeSymbols_RetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(exchangeInfoBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetries(3, time.Millisecond))
	symbols, err := c.GetExchangeSymbols(context.Background())
	if err != nil {
		t.Fatalf("GetExchangeSymbols error after retries: %v", err)
	}
	if len(symbols) != 2 {
		t.Errorf("symbols = %v, want 2 entries", symbols)
	}
	if calls.Load() != 3 {
		t.Errorf("server called %d times, want 3", calls.Load())
	}
}

func TestGetExchangeSymbols_NoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetries(3, time.Millisecond))
	_, err := c.GetExchangeSymbols(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", apiErr.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1 (no retry on 400)", calls.Load())
	}
}

func TestAPIError_IsRetryable(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{500, true},
		{503, true},
		{429, true},
		{418, true},
		{400, false},
		{404, false},
	}

	for _, tt := range tests {
		e := &APIError{StatusCode: tt.code}
		if got := e.IsRetryable(); got != tt.want {
			t.Errorf("IsRetryable(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
