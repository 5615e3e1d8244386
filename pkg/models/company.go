package models

import (
	"time"

	"github.com/lib/pq"
)

// Company is a tracked public company on the watchlist.
type Company struct {
	ID        string         `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	Ticker    *string        `json:"ticker,omitempty" db:"ticker"`
	Aliases   pq.StringArray `json:"aliases" db:"aliases"`
	Active    bool           `json:"active" db:"active"`
	Territory *string        `json:"territory,omitempty" db:"territory"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// TickerSymbol returns the ticker or empty string when none is set.
func (c *Company) TickerSymbol() string {
	if c.Ticker == nil {
		return ""
	}
	return *c.Ticker
}

// TerritoryLink ties a company to a sales territory. A company with no
// remaining links is orphaned and eligible for hard deletion.
type TerritoryLink struct {
	CompanyID string    `json:"company_id" db:"company_id"`
	Territory string    `json:"territory" db:"territory"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
