package stream

import (
	"strings"

	"github.com/rickgao/binance-data/internal/symbol"
)

// streamSuffix is appended to each lowercased symbol to select its trade
// stream.
const streamSuffix = "@trade"

// StreamURL builds the combined subscription URL for a symbol set. Streams
// are joined as path segments onto the base URL, sorted for a stable URL.
func StreamURL(base string, set symbol.Set) string {
	segments := make([]string, 0, len(set))
	for _, s := range set.Sorted() {
		segments = append(segments, strings.ToLower(s)+streamSuffix)
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.Join(segments, "/")
}
