package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Delta200513/InvestBuy/internal/domain"
)

const defaultTwelveDataBaseURL = "https://api.twelvedata.com"

// TwelveData implements domain.QuoteSource against the Twelve Data
// quote API. Symbols the API cannot price (missing payload or a zero
// close) are reported as ErrQuoteUnavailable rather than failing hard,
// so a caching layer on top can keep serving the last known prices.
type TwelveData struct {
	apiKey  string
	baseURL string
	symbols []string
	client  *http.Client
	log     zerolog.Logger
}

// NewTwelveData creates a Twelve Data client covering the given
// symbols. baseURL is overridable for tests; pass "" for the real API.
func NewTwelveData(apiKey, baseURL string, symbols []string, log zerolog.Logger) *TwelveData {
	if baseURL == "" {
		baseURL = defaultTwelveDataBaseURL
	}
	return &TwelveData{
		apiKey:  apiKey,
		baseURL: baseURL,
		symbols: symbols,
		client:  &http.Client{Timeout: 5 * time.Second},
		log:     log.With().Str("component", "twelvedata").Logger(),
	}
}

// twelveDataQuote mirrors the fields we use from the API payload.
// All numbers arrive as strings.
type twelveDataQuote struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Open          string `json:"open"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Close         string `json:"close"`
	PreviousClose string `json:"previous_close"`
	Change        string `json:"change"`
	PercentChange string `json:"percent_change"`
}

// Quote fetches the current quote for one symbol.
func (t *TwelveData) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	endpoint := fmt.Sprintf("%s/quote?symbol=%s&apikey=%s",
		t.baseURL, url.QueryEscape(symbol), url.QueryEscape(t.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrQuoteUnavailable, symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrQuoteUnavailable, symbol, resp.StatusCode)
	}

	var payload twelveDataQuote
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrQuoteUnavailable, symbol, err)
	}

	if payload.Close == "" || payload.Close == "0.00" {
		return nil, fmt.Errorf("%w: %s: no close price", domain.ErrQuoteUnavailable, symbol)
	}

	price, err := decimal.NewFromString(payload.Close)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: bad close price %q", domain.ErrQuoteUnavailable, symbol, payload.Close)
	}

	name := payload.Name
	if name == "" {
		name = CompanyName(symbol)
	}

	quote := &domain.Quote{
		Symbol:        symbol,
		Name:          name,
		Price:         price,
		Change:        parseOrDefault(payload.Change, decimal.Zero),
		ChangePercent: parseOrDefault(payload.PercentChange, decimal.Zero),
		High:          parseOrDefault(payload.High, price),
		Low:           parseOrDefault(payload.Low, price),
		Open:          parseOrDefault(payload.Open, price),
		PreviousClose: parseOrDefault(payload.PreviousClose, price),
	}

	t.log.Debug().Str("symbol", symbol).Str("price", price.String()).Msg("Quote fetched")

	return quote, nil
}

// Quotes fetches quotes for all configured symbols. Symbols that fail
// are logged and skipped; the call only fails when nothing could be
// fetched at all.
func (t *TwelveData) Quotes(ctx context.Context) ([]*domain.Quote, error) {
	result := make([]*domain.Quote, 0, len(t.symbols))
	for _, symbol := range t.symbols {
		quote, err := t.Quote(ctx, symbol)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			t.log.Warn().Err(err).Str("symbol", symbol).Msg("Skipping symbol")
			continue
		}
		result = append(result, quote)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("%w: no symbols could be fetched", domain.ErrQuoteUnavailable)
	}
	return result, nil
}

func parseOrDefault(s string, fallback decimal.Decimal) decimal.Decimal {
	if s == "" {
		return fallback
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fallback
	}
	return d
}
