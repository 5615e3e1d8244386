package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketCapTier buckets companies by market capitalization.
type MarketCapTier string

const (
	TierSmall   MarketCapTier = "small"
	TierMid     MarketCapTier = "mid"
	TierLarge   MarketCapTier = "large"
	TierUnknown MarketCapTier = "unknown"
)

// FinancialSnapshot holds per-company market context. One row per company,
// overwritten wholesale on each refresh.
type FinancialSnapshot struct {
	CompanyID      string              `json:"company_id" db:"company_id"`
	PriceChange7D  decimal.NullDecimal `json:"price_change_7d" db:"price_change_7d"`
	PriceChange30D decimal.NullDecimal `json:"price_change_30d" db:"price_change_30d"`
	MarketCap      decimal.NullDecimal `json:"market_cap" db:"market_cap"`
	MarketCapTier  MarketCapTier       `json:"market_cap_tier" db:"market_cap_tier"`
	LastEarnings   *time.Time          `json:"last_earnings,omitempty" db:"last_earnings"`
	NextEarnings   *time.Time          `json:"next_earnings,omitempty" db:"next_earnings"`
	UpdatedAt      time.Time           `json:"updated_at" db:"updated_at"`
}

// IsStale reports whether the snapshot is older than the freshness window.
func (f *FinancialSnapshot) IsStale(window time.Duration, now time.Time) bool {
	return now.Sub(f.UpdatedAt) > window
}
