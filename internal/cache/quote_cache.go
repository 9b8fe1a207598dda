package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dyike/divcalendar/pkg/dataflows"
	"go.uber.org/zap"
)

// QuoteCache memoizes provider lookups for the lifetime of one run.
// Failed lookups are cached as well and never retried.
type QuoteCache struct {
	provider dataflows.QuoteProvider
	logger   *zap.Logger

	mu      sync.Mutex
	entries map[string]dataflows.QuoteResult
	hits    int
	misses  int
}

// Stats describes cache usage after a run.
type Stats struct {
	Size     int      `json:"size"`
	Hits     int      `json:"hits"`
	Misses   int      `json:"misses"`
	Failures int      `json:"failures"`
	Failed   []string `json:"failed,omitempty"`
}

func NewQuoteCache(provider dataflows.QuoteProvider, logger *zap.Logger) *QuoteCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteCache{
		provider: provider,
		logger:   logger,
		entries:  make(map[string]dataflows.QuoteResult),
	}
}

// Get returns the cached result for symbol, calling the provider on first use.
func (c *QuoteCache) Get(ctx context.Context, symbol string) dataflows.QuoteResult {
	key := dataflows.NormalizeSymbol(symbol)

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.entries[key]; ok {
		c.hits++
		return cached
	}
	c.misses++

	result := c.lookup(ctx, key)
	if result.Err != nil {
		c.logger.Warn("quote lookup failed, using defaults",
			zap.String("symbol", key),
			zap.String("provider", c.provider.Name()),
			zap.Error(result.Err))
	} else {
		c.logger.Debug("quote lookup",
			zap.String("symbol", key),
			zap.String("price", result.Info.CurrentPrice.String()),
			zap.String("recommendation", result.Info.RecommendationKey))
	}

	c.entries[key] = result
	return result
}

func (c *QuoteCache) lookup(ctx context.Context, symbol string) (result dataflows.QuoteResult) {
	result.Symbol = symbol

	defer func() {
		if r := recover(); r != nil {
			result.Info = dataflows.QuoteInfo{}
			result.Err = fmt.Errorf("quote provider panicked: %v", r)
		}
	}()

	info, err := c.provider.GetQuoteInfo(ctx, symbol)
	switch {
	case err != nil:
		result.Err = err
	case info == nil:
		result.Err = fmt.Errorf("%w for %s", dataflows.ErrNoQuote, symbol)
	default:
		result.Info = *info
	}
	return result
}

func (c *QuoteCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *QuoteCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		Size:   len(c.entries),
		Hits:   c.hits,
		Misses: c.misses,
	}
	for symbol, result := range c.entries {
		if result.Err != nil {
			stats.Failed = append(stats.Failed, symbol)
		}
	}
	sort.Strings(stats.Failed)
	stats.Failures = len(stats.Failed)
	return stats
}
