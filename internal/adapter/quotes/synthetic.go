// Package quotes provides quote source implementations: a synthetic
// generator for offline use, a Twelve Data HTTP client, and a caching
// decorator that rate-limits upstream calls.
package quotes

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Delta200513/InvestBuy/internal/domain"
)

// basePrices holds a realistic reference price per supported symbol.
// The synthetic source jitters around these values.
var basePrices = map[string]float64{
	"AAPL": 268.89, "GOOGL": 314.32, "MSFT": 387.15, "AMZN": 204.63,
	"TSLA": 396.66, "META": 643.16, "NFLX": 76.17, "NVDA": 191.12,
	"AMD": 165.80, "INTC": 43.58, "IBM": 245.38, "ORCL": 138.85,
	"JPM": 295.61, "V": 310.62, "WMT": 125.44, "DIS": 103.46,
}

var companyNames = map[string]string{
	"AAPL":  "Apple Inc.",
	"GOOGL": "Alphabet Inc.",
	"MSFT":  "Microsoft Corporation",
	"AMZN":  "Amazon.com Inc.",
	"TSLA":  "Tesla Inc.",
	"META":  "Meta Platforms Inc.",
	"NFLX":  "Netflix Inc.",
	"NVDA":  "NVIDIA Corporation",
	"AMD":   "Advanced Micro Devices Inc.",
	"INTC":  "Intel Corporation",
	"IBM":   "International Business Machines",
	"ORCL":  "Oracle Corporation",
	"JPM":   "JPMorgan Chase & Co.",
	"V":     "Visa Inc.",
	"WMT":   "Walmart Inc.",
	"DIS":   "The Walt Disney Company",
}

// SupportedSymbols returns the symbols the synthetic source can price,
// in no particular order.
func SupportedSymbols() []string {
	symbols := make([]string, 0, len(basePrices))
	for symbol := range basePrices {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// CompanyName returns the display name for a symbol, or the symbol
// itself when unknown.
func CompanyName(symbol string) string {
	if name, ok := companyNames[symbol]; ok {
		return name
	}
	return symbol
}

// Synthetic implements domain.QuoteSource with generated prices: each
// quote is the symbol's base price moved by a random fraction of a
// percent, with OHLC fields derived from the base price. No network,
// no persistence.
type Synthetic struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthetic creates a synthetic quote source seeded with seed.
func NewSynthetic(seed int64) *Synthetic {
	return &Synthetic{rng: rand.New(rand.NewSource(seed))}
}

// Quote returns a generated quote for a supported symbol.
func (s *Synthetic) Quote(_ context.Context, symbol string) (*domain.Quote, error) {
	base, ok := basePrices[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrQuoteUnavailable, symbol)
	}
	return s.generate(symbol, base), nil
}

// Quotes returns generated quotes for every supported symbol, in
// stable symbol order.
func (s *Synthetic) Quotes(_ context.Context) ([]*domain.Quote, error) {
	symbols := make([]string, 0, len(basePrices))
	for symbol := range basePrices {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	result := make([]*domain.Quote, 0, len(symbols))
	for _, symbol := range symbols {
		result = append(result, s.generate(symbol, basePrices[symbol]))
	}
	return result, nil
}

func (s *Synthetic) generate(symbol string, base float64) *domain.Quote {
	s.mu.Lock()
	// Move the price by at most ±0.1% of the base.
	changePercent := (s.rng.Float64()*0.2 - 0.1) / 100
	s.mu.Unlock()

	change := base * changePercent
	price := base + change

	return &domain.Quote{
		Symbol:        symbol,
		Name:          CompanyName(symbol),
		Price:         decimal.NewFromFloat(price).Round(2),
		Change:        decimal.NewFromFloat(change).Round(2),
		ChangePercent: decimal.NewFromFloat(changePercent * 100).Round(2),
		High:          decimal.NewFromFloat(base * 1.01).Round(2),
		Low:           decimal.NewFromFloat(base * 0.99).Round(2),
		Open:          decimal.NewFromFloat(base * 0.995).Round(2),
		PreviousClose: decimal.NewFromFloat(base).Round(2),
	}
}
