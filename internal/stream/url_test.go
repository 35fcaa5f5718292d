package stream

import (
	"testing"

	"github.com/rickgao/binance-data/internal/symbol"
)

func TestStreamURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		set  symbol.Set
		want string
	}{
		{
			name: "single symbol",
			base: "wss://stream.binance.com:9443/ws",
			set:  symbol.NewSet("BTCUSDT"),
			want: "wss://stream.binance.com:9443/ws/btcusdt@trade",
		},
		{
			name: "multiple symbols sorted and lowercased",
			base: "wss://stream.binance.com:9443/ws",
			set:  symbol.NewSet("ETHUSDT", "BTCUSDT", "SOLUSDT"),
			want: "wss://stream.binance.com:9443/ws/btcusdt@trade/ethusdt@trade/solusdt@trade",
		},
		{
			name: "trailing slash on base",
			base: "wss://stream.binance.com:9443/ws/",
			set:  symbol.NewSet("BTCUSDT"),
			want: "wss://stream.binance.com:9443/ws/btcusdt@trade",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StreamURL(tt.base, tt.set); got != tt.want {
				t.Errorf("StreamURL = %q, want %q", got, tt.want)
			}
		})
	}
}
