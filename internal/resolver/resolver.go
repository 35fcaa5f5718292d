// Package resolver determines the authoritative symbol set on demand.
//
// Resolution reads the configured symbols, keeps the well-formed ones, and
// intersects them with the trading pairs the exchange actually lists. The
// exchange lookup is cached; when the reference endpoint is unreachable the
// resolver degrades to the format-valid subset so ingestion keeps running.
package resolver

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rickgao/binance-data/internal/config"
	"github.com/rickgao/binance-data/internal/symbol"
)

// DefaultCacheTTL is how long a recognized-set lookup stays valid.
const DefaultCacheTTL = 10 * time.Minute

// ReferenceClient provides the exchange's listed trading pairs.
type ReferenceClient interface {
	GetExchangeSymbols(ctx context.Context) ([]string, error)
}

// Resolver resolves the current authoritative symbol set.
type Resolver struct {
	configPath string
	ref        ReferenceClient
	cacheTTL   time.Duration
	logger     *slog.Logger

	// Recognized-set cache, keyed by the sorted format-valid input.
	mu       sync.Mutex
	cacheKey string
	cached   symbol.Set
	cachedAt time.Time

	// One-shot on-disk cleanup of invalid entries.
	cleanup sync.Once
}

// New creates a Resolver reading symbols from the config file at configPath.
func New(configPath string, ref ReferenceClient, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		configPath: configPath,
		ref:        ref,
		cacheTTL:   DefaultCacheTTL,
		logger:     logger,
	}
}

// Resolve returns the authoritative symbol set: configured symbols that are
// well-formed and recognized by the exchange. An error is returned only
// when the config file itself cannot be read; reference-endpoint failures
// degrade to the format-valid subset.
func (r *Resolver) Resolve(ctx context.Context) (symbol.Set, error) {
	cfg, err := config.LoadWithDefaults(r.configPath)
	if err != nil {
		return nil, err
	}

	valid, invalid := splitValid(cfg.Gatherer.Symbols)

	if len(invalid) > 0 {
		r.logger.Warn("ignoring invalid configured symbols", "symbols", invalid)
	}
	r.cleanup.Do(func() {
		if len(invalid) == 0 {
			return
		}
		if err := config.RewriteSymbols(r.configPath, valid); err != nil {
			r.logger.Warn("failed to clean invalid symbols from config file", "error", err)
			return
		}
		r.logger.Info("removed invalid symbols from config file",
			"removed", invalid,
			"kept", valid,
		)
	})

	formatValid := symbol.NewSet(valid...)
	if len(formatValid) == 0 {
		return formatValid, nil
	}

	recognized, err := r.recognizedSet(ctx, formatValid)
	if err != nil {
		r.logger.Warn("reference endpoint unreachable, using format-valid symbols",
			"error", err,
			"symbols", formatValid.Sorted(),
		)
		return formatValid, nil
	}

	resolved := formatValid.Intersect(recognized)
	if dropped := len(formatValid) - len(resolved); dropped > 0 {
		r.logger.Warn("dropping symbols not listed on the exchange",
			"dropped", dropped,
			"resolved", resolved.Sorted(),
		)
	}
	return resolved, nil
}

// recognizedSet returns the exchange's listed pairs, cached per input set.
func (r *Resolver) recognizedSet(ctx context.Context, input symbol.Set) (symbol.Set, error) {
	key := input.Key()

	r.mu.Lock()
	if r.cacheKey == key && time.Since(r.cachedAt) < r.cacheTTL {
		cached := r.cached
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	listed, err := r.ref.GetExchangeSymbols(ctx)
	if err != nil {
		return nil, err
	}
	recognized := symbol.NewSet(listed...)

	r.mu.Lock()
	r.cacheKey = key
	r.cached = recognized
	r.cachedAt = time.Now()
	r.mu.Unlock()

	return recognized, nil
}

// splitValid partitions configured entries into well-formed and invalid,
// preserving the original spelling for the file rewrite.
func splitValid(symbols []string) (valid, invalid []string) {
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		if !symbol.ValidConfig(s) {
			invalid = append(invalid, s)
			continue
		}
		upper := strings.ToUpper(s)
		if _, dup := seen[upper]; dup {
			continue
		}
		seen[upper] = struct{}{}
		valid = append(valid, s)
	}
	return valid, invalid
}
