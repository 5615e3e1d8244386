package market

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Quote carries point-in-time quote data. Fields are independently optional.
type Quote struct {
	MarketCap decimal.NullDecimal
}

// PriceBar is one daily close.
type PriceBar struct {
	Date  time.Time
	Close decimal.Decimal
}

// EarningsDates holds the company's earnings-calendar context. Either side
// may be nil when the calendar is absent.
type EarningsDates struct {
	Last *time.Time
	Next *time.Time
}

// Source answers point queries for a ticker. Every method may fail
// independently; callers degrade the affected field rather than aborting.
type Source interface {
	// GetName returns source name
	GetName() string

	// GetQuote returns current quote data for a ticker.
	GetQuote(ctx context.Context, ticker string) (Quote, error)

	// GetPriceHistory returns daily closes for the trailing number of days,
	// oldest first.
	GetPriceHistory(ctx context.Context, ticker string, days int) ([]PriceBar, error)

	// GetEarningsDates returns last/next earnings dates for a ticker.
	GetEarningsDates(ctx context.Context, ticker string) (EarningsDates, error)
}
