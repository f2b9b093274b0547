package quotes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Delta200513/InvestBuy/internal/domain"
)

// Cache decorates a domain.QuoteSource with a TTL cache over the full
// quote list. When the upstream fails on refresh the previous snapshot
// keeps being served; valuation prefers stale prices over none.
type Cache struct {
	upstream domain.QuoteSource
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu        sync.Mutex
	bySymbol  map[string]*domain.Quote
	snapshot  []*domain.Quote
	fetchedAt time.Time
}

// NewCache wraps upstream with a cache holding quotes for ttl.
func NewCache(upstream domain.QuoteSource, ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{
		upstream: upstream,
		ttl:      ttl,
		now:      time.Now,
		log:      log.With().Str("component", "quote_cache").Logger(),
		bySymbol: make(map[string]*domain.Quote),
	}
}

// Quote returns the cached quote for a symbol, refreshing the cache
// first if it has expired.
func (c *Cache) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.refreshIfStale(ctx)

	quote, ok := c.bySymbol[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuoteUnavailable, symbol)
	}
	copied := *quote
	return &copied, nil
}

// Quotes returns the cached quote list, refreshing the cache first if
// it has expired.
func (c *Cache) Quotes(ctx context.Context) ([]*domain.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.refreshIfStale(ctx)

	if len(c.snapshot) == 0 {
		return nil, fmt.Errorf("%w: cache is empty", domain.ErrQuoteUnavailable)
	}

	out := make([]*domain.Quote, len(c.snapshot))
	for i, q := range c.snapshot {
		copied := *q
		out[i] = &copied
	}
	return out, nil
}

// Refresh forces a cache reload regardless of age.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh(ctx)
}

// LastUpdate returns when the cache was last successfully filled; the
// zero time means never.
func (c *Cache) LastUpdate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchedAt
}

// Fresh reports whether the cached snapshot is within its TTL.
func (c *Cache) Fresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) <= c.ttl
}

// refreshIfStale reloads the cache when expired, keeping the old
// snapshot on upstream failure. Callers hold c.mu.
func (c *Cache) refreshIfStale(ctx context.Context) {
	if !c.fetchedAt.IsZero() && c.now().Sub(c.fetchedAt) <= c.ttl {
		return
	}
	if err := c.refresh(ctx); err != nil {
		c.log.Warn().Err(err).Msg("Quote refresh failed, serving cached data")
	}
}

// refresh reloads the cache from upstream. Callers hold c.mu.
func (c *Cache) refresh(ctx context.Context) error {
	fresh, err := c.upstream.Quotes(ctx)
	if err != nil {
		return err
	}

	c.bySymbol = make(map[string]*domain.Quote, len(fresh))
	for _, q := range fresh {
		c.bySymbol[q.Symbol] = q
	}
	c.snapshot = fresh
	c.fetchedAt = c.now()

	c.log.Debug().Int("symbols", len(fresh)).Msg("Quote cache refreshed")
	return nil
}
