package domain

import "github.com/shopspring/decimal"

// Quote is an ephemeral market price for one symbol. Quotes are
// supplied by a QuoteSource at valuation time and never persisted by
// the accounting core; prices may be stale or synthetic.
type Quote struct {
	Symbol        string
	Name          string
	Price         decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
	High          decimal.Decimal
	Low           decimal.Decimal
	Open          decimal.Decimal
	PreviousClose decimal.Decimal
}
