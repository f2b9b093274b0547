package quotes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Delta200513/InvestBuy/internal/domain"
)

// countingSource counts upstream calls and can be switched to failing.
type countingSource struct {
	mu    sync.Mutex
	calls int
	fail  bool
	price decimal.Decimal
}

func (s *countingSource) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	all, err := s.Quotes(ctx)
	if err != nil {
		return nil, err
	}
	for _, q := range all {
		if q.Symbol == symbol {
			return q, nil
		}
	}
	return nil, domain.ErrQuoteUnavailable
}

func (s *countingSource) Quotes(_ context.Context) ([]*domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail {
		return nil, errors.New("upstream down")
	}
	return []*domain.Quote{
		{Symbol: "AAPL", Name: "Apple Inc.", Price: s.price},
	}, nil
}

func TestCache_ServesFromCacheWithinTTL(t *testing.T) {
	ctx := context.Background()
	upstream := &countingSource{price: decimal.RequireFromString("268.89")}
	cache := NewCache(upstream, 5*time.Minute, zerolog.Nop())

	for i := 0; i < 5; i++ {
		quote, err := cache.Quote(ctx, "AAPL")
		require.NoError(t, err)
		assert.True(t, quote.Price.Equal(decimal.RequireFromString("268.89")))
	}

	assert.Equal(t, 1, upstream.calls, "one upstream fetch serves all requests within the TTL")
	assert.True(t, cache.Fresh())
}

func TestCache_RefreshesAfterTTL(t *testing.T) {
	ctx := context.Background()
	upstream := &countingSource{price: decimal.RequireFromString("268.89")}
	cache := NewCache(upstream, 5*time.Minute, zerolog.Nop())

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	_, err := cache.Quote(ctx, "AAPL")
	require.NoError(t, err)

	// Advance past the TTL and change the upstream price.
	current = current.Add(6 * time.Minute)
	upstream.mu.Lock()
	upstream.price = decimal.RequireFromString("275.00")
	upstream.mu.Unlock()

	quote, err := cache.Quote(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("275.00")))
	assert.Equal(t, 2, upstream.calls)
}

func TestCache_ServesStaleOnUpstreamFailure(t *testing.T) {
	ctx := context.Background()
	upstream := &countingSource{price: decimal.RequireFromString("268.89")}
	cache := NewCache(upstream, 5*time.Minute, zerolog.Nop())

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	_, err := cache.Quote(ctx, "AAPL")
	require.NoError(t, err)

	// Expire the cache and break the upstream.
	current = current.Add(6 * time.Minute)
	upstream.mu.Lock()
	upstream.fail = true
	upstream.mu.Unlock()

	quote, err := cache.Quote(ctx, "AAPL")
	require.NoError(t, err, "stale quotes are better than no quotes")
	assert.True(t, quote.Price.Equal(decimal.RequireFromString("268.89")))
}

func TestCache_RefreshForcesReload(t *testing.T) {
	ctx := context.Background()
	upstream := &countingSource{price: decimal.RequireFromString("268.89")}
	cache := NewCache(upstream, time.Hour, zerolog.Nop())

	_, err := cache.Quotes(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.Refresh(ctx))

	assert.Equal(t, 2, upstream.calls)
	assert.False(t, cache.LastUpdate().IsZero())
}

func TestCache_UnknownSymbol(t *testing.T) {
	ctx := context.Background()
	upstream := &countingSource{price: decimal.RequireFromString("268.89")}
	cache := NewCache(upstream, time.Hour, zerolog.Nop())

	_, err := cache.Quote(ctx, "NOPE")
	assert.ErrorIs(t, err, domain.ErrQuoteUnavailable)
}
