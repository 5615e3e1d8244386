package financials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/salesintel/tracker/internal/adapters/database"
	"github.com/salesintel/tracker/pkg/models"
)

// Repository persists per-company financial snapshots.
type Repository struct {
	db *database.DB
}

// NewRepository creates new financials repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// GetStaleCompanies returns active ticker-bearing companies whose snapshot
// is missing or older than the freshness window.
func (r *Repository) GetStaleCompanies(ctx context.Context, window time.Duration) ([]models.Company, error) {
	cutoff := time.Now().Add(-window)

	var companies []models.Company
	err := r.db.DB().SelectContext(ctx, &companies, `
		SELECT c.id, c.name, c.ticker, c.aliases, c.active, c.territory, c.created_at
		FROM companies c
		LEFT JOIN company_financials f ON f.company_id = c.id
		WHERE c.active = TRUE
		  AND c.ticker IS NOT NULL
		  AND (f.company_id IS NULL OR f.updated_at < $1)
		ORDER BY c.name
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to select stale companies: %w", err)
	}
	return companies, nil
}

// Upsert overwrites the snapshot for a company wholesale.
func (r *Repository) Upsert(ctx context.Context, s *models.FinancialSnapshot) error {
	_, err := r.db.DB().ExecContext(ctx, `
		INSERT INTO company_financials (
			company_id, price_change_7d, price_change_30d, market_cap,
			market_cap_tier, last_earnings, next_earnings, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (company_id) DO UPDATE SET
			price_change_7d = $2,
			price_change_30d = $3,
			market_cap = $4,
			market_cap_tier = $5,
			last_earnings = $6,
			next_earnings = $7,
			updated_at = $8
	`, s.CompanyID, s.PriceChange7D, s.PriceChange30D, s.MarketCap,
		s.MarketCapTier, s.LastEarnings, s.NextEarnings, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert financial snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the snapshot for a company, or nil when none exists.
func (r *Repository) GetSnapshot(ctx context.Context, companyID string) (*models.FinancialSnapshot, error) {
	var s models.FinancialSnapshot
	err := r.db.DB().GetContext(ctx, &s, `
		SELECT company_id, price_change_7d, price_change_30d, market_cap,
		       market_cap_tier, last_earnings, next_earnings, updated_at
		FROM company_financials
		WHERE company_id = $1
	`, companyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get financial snapshot: %w", err)
	}
	return &s, nil
}

// GetSnapshots returns all snapshots keyed by company id.
func (r *Repository) GetSnapshots(ctx context.Context) (map[string]models.FinancialSnapshot, error) {
	var rows []models.FinancialSnapshot
	err := r.db.DB().SelectContext(ctx, &rows, `
		SELECT company_id, price_change_7d, price_change_30d, market_cap,
		       market_cap_tier, last_earnings, next_earnings, updated_at
		FROM company_financials
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list financial snapshots: %w", err)
	}

	out := make(map[string]models.FinancialSnapshot, len(rows))
	for _, s := range rows {
		out[s.CompanyID] = s
	}
	return out, nil
}
