// Package valuation derives market values and unrealized profit from a
// ledger snapshot and current prices. It holds no mutable state: the
// same holdings and quotes always produce the same result.
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/Delta200513/InvestBuy/internal/domain"
)

// QuoteLookup resolves the current price for a symbol. The second
// return value reports whether a price was available.
type QuoteLookup func(symbol string) (decimal.Decimal, bool)

// ValuedHolding is one holding joined with its current price.
// Monetary fields are rounded to 2 decimal places for presentation.
type ValuedHolding struct {
	Symbol           string
	Quantity         int64
	AvgPrice         decimal.Decimal
	CurrentPrice     decimal.Decimal
	MarketValue      decimal.Decimal
	UnrealizedProfit decimal.Decimal
	ReturnPercent    decimal.Decimal
}

// Result aggregates the valued holdings. Totals are accumulated from
// unrounded per-holding values and rounded once at the end, so repeated
// valuations never compound rounding error.
type Result struct {
	Holdings         []ValuedHolding
	TotalMarketValue decimal.Decimal
	TotalCost        decimal.Decimal
	TotalProfit      decimal.Decimal
	ReturnPercent    decimal.Decimal
}

// Valuate joins holdings with current prices. A holding whose quote is
// unavailable is valued at its average purchase price, which treats the
// position as break-even instead of failing the whole valuation.
// Valuate never fails and never mutates its input.
func Valuate(holdings []domain.Holding, lookup QuoteLookup) Result {
	result := Result{
		Holdings: make([]ValuedHolding, 0, len(holdings)),
	}

	totalValue := decimal.Zero
	totalCost := decimal.Zero

	for _, h := range holdings {
		currentPrice, ok := lookup(h.Symbol)
		if !ok {
			currentPrice = h.AvgPrice
		}

		qty := decimal.NewFromInt(h.Quantity)
		marketValue := currentPrice.Mul(qty)
		profit := currentPrice.Sub(h.AvgPrice).Mul(qty)
		cost := h.CostBasis()

		totalValue = totalValue.Add(marketValue)
		totalCost = totalCost.Add(cost)

		result.Holdings = append(result.Holdings, ValuedHolding{
			Symbol:           h.Symbol,
			Quantity:         h.Quantity,
			AvgPrice:         h.AvgPrice.Round(2),
			CurrentPrice:     currentPrice.Round(2),
			MarketValue:      marketValue.Round(2),
			UnrealizedProfit: profit.Round(2),
			ReturnPercent:    returnPercent(profit, cost),
		})
	}

	result.TotalMarketValue = totalValue.Round(2)
	result.TotalCost = totalCost.Round(2)
	result.TotalProfit = totalValue.Sub(totalCost).Round(2)
	result.ReturnPercent = returnPercent(totalValue.Sub(totalCost), totalCost)

	return result
}

// returnPercent computes profit/cost as a percentage rounded to 2
// decimal places, or zero for a zero cost basis.
func returnPercent(profit, cost decimal.Decimal) decimal.Decimal {
	if cost.IsZero() {
		return decimal.Zero
	}
	return profit.Div(cost).Mul(decimal.NewFromInt(100)).Round(2)
}
