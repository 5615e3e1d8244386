package watchlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/salesintel/tracker/internal/adapters/database"
	"github.com/salesintel/tracker/pkg/models"
)

// Repository handles watchlist persistence: companies and their territory
// links.
type Repository struct {
	db *database.DB
}

// NewRepository creates new watchlist repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// AddCompany creates a company and, when territory is non-empty, its first
// territory link. A ticker already on the watchlist is rejected.
func (r *Repository) AddCompany(ctx context.Context, name string, ticker *string, aliases []string, territory string) (*models.Company, error) {
	if name == "" {
		return nil, fmt.Errorf("company name is required")
	}
	if ticker != nil && *ticker == "" {
		ticker = nil
	}

	if ticker != nil {
		existing, err := r.GetCompanyByTicker(ctx, *ticker)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("company with ticker %s already exists", *ticker)
		}
	}

	var terr *string
	if territory != "" {
		terr = &territory
	}

	var company models.Company
	err := r.db.DB().QueryRowxContext(ctx, `
		INSERT INTO companies (name, ticker, aliases, territory)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, ticker, aliases, active, territory, created_at
	`, name, ticker, pq.StringArray(aliases), terr).StructScan(&company)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("company with ticker %s already exists", *ticker)
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	if territory != "" {
		if err := r.AddTerritoryLink(ctx, company.ID, territory); err != nil {
			return nil, err
		}
	}

	return &company, nil
}

// GetCompanies lists companies, optionally restricted to active ones.
func (r *Repository) GetCompanies(ctx context.Context, activeOnly bool) ([]models.Company, error) {
	query := `
		SELECT id, name, ticker, aliases, active, territory, created_at
		FROM companies
	`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name`

	var companies []models.Company
	if err := r.db.DB().SelectContext(ctx, &companies, query); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}

// GetCompanyByID finds a company by id. Returns nil when not found.
func (r *Repository) GetCompanyByID(ctx context.Context, id string) (*models.Company, error) {
	var company models.Company
	err := r.db.DB().GetContext(ctx, &company, `
		SELECT id, name, ticker, aliases, active, territory, created_at
		FROM companies
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &company, nil
}

// GetCompanyByTicker finds a company by ticker. Returns nil when not found.
func (r *Repository) GetCompanyByTicker(ctx context.Context, ticker string) (*models.Company, error) {
	var company models.Company
	err := r.db.DB().GetContext(ctx, &company, `
		SELECT id, name, ticker, aliases, active, territory, created_at
		FROM companies
		WHERE ticker = $1
	`, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company by ticker: %w", err)
	}
	return &company, nil
}

// SetActive toggles whether a company participates in pipeline runs.
func (r *Repository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.DB().ExecContext(ctx, `
		UPDATE companies SET active = $2 WHERE id = $1
	`, id, active)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("company %s not found", id)
	}
	return nil
}

// AddTerritoryLink ties a company to a territory. Adding an existing link is
// a no-op.
func (r *Repository) AddTerritoryLink(ctx context.Context, companyID, territory string) error {
	_, err := r.db.DB().ExecContext(ctx, `
		INSERT INTO territory_links (company_id, territory)
		VALUES ($1, $2)
		ON CONFLICT (company_id, territory) DO NOTHING
	`, companyID, territory)
	if err != nil {
		return fmt.Errorf("failed to add territory link: %w", err)
	}
	return nil
}

// GetTerritories lists the territories a company is linked to.
func (r *Repository) GetTerritories(ctx context.Context, companyID string) ([]string, error) {
	var territories []string
	err := r.db.DB().SelectContext(ctx, &territories, `
		SELECT territory FROM territory_links
		WHERE company_id = $1
		ORDER BY territory
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list territories: %w", err)
	}
	return territories, nil
}

// RemoveFromTerritory drops one territory link. When it was the last link
// the company is orphaned and hard-deleted, cascading to its articles,
// signals, financials and outreach history. Returns true when the company
// was deleted.
func (r *Repository) RemoveFromTerritory(ctx context.Context, companyID, territory string) (bool, error) {
	tx, err := r.db.DB().BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM territory_links
		WHERE company_id = $1 AND territory = $2
	`, companyID, territory)
	if err != nil {
		return false, fmt.Errorf("failed to remove territory link: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, fmt.Errorf("company %s is not linked to territory %s", companyID, territory)
	}

	var remaining int
	if err := tx.GetContext(ctx, &remaining, `
		SELECT COUNT(*) FROM territory_links WHERE company_id = $1
	`, companyID); err != nil {
		return false, fmt.Errorf("failed to count territory links: %w", err)
	}

	deleted := false
	if remaining == 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM companies WHERE id = $1
		`, companyID); err != nil {
			return false, fmt.Errorf("failed to delete orphaned company: %w", err)
		}
		deleted = true
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return deleted, nil
}

// DeleteCompany removes a company outright, cascading to all dependent rows.
func (r *Repository) DeleteCompany(ctx context.Context, id string) error {
	res, err := r.db.DB().ExecContext(ctx, `
		DELETE FROM companies WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("company %s not found", id)
	}
	return nil
}
