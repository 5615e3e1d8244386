package outreach

import (
	"context"
	"fmt"
	"time"

	"github.com/salesintel/tracker/internal/adapters/database"
	"github.com/salesintel/tracker/pkg/models"
)

// Repository reads qualifying signals and maintains the append-only outreach
// action log.
type Repository struct {
	db *database.DB
}

// NewRepository creates new outreach repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// GetQualifyingSignals returns signals created inside the trailing window
// with at least the minimum relevance, joined with company and article
// context, grouped company-by-company (newest first within a company).
func (r *Repository) GetQualifyingSignals(ctx context.Context, window time.Duration, minRelevance float64) ([]models.SignalView, error) {
	cutoff := time.Now().Add(-window)

	var signals []models.SignalView
	err := r.db.DB().SelectContext(ctx, &signals, `
		SELECT s.id, s.article_id, s.company_id, s.summary, s.relevance_score,
		       s.category, s.pain_score, s.talking_point, s.created_at,
		       c.name AS company_name, c.ticker,
		       a.url AS article_url, a.source, a.published_at
		FROM signals s
		JOIN companies c ON c.id = s.company_id
		JOIN articles a ON a.id = s.article_id
		WHERE s.created_at >= $1
		  AND s.relevance_score >= $2
		  AND c.active = TRUE
		ORDER BY c.name, s.created_at DESC
	`, cutoff, minRelevance)
	if err != nil {
		return nil, fmt.Errorf("failed to select qualifying signals: %w", err)
	}
	return signals, nil
}

// GetSignalsForCompany returns every signal for one company, newest first.
func (r *Repository) GetSignalsForCompany(ctx context.Context, companyID string) ([]models.SignalView, error) {
	var signals []models.SignalView
	err := r.db.DB().SelectContext(ctx, &signals, `
		SELECT s.id, s.article_id, s.company_id, s.summary, s.relevance_score,
		       s.category, s.pain_score, s.talking_point, s.created_at,
		       c.name AS company_name, c.ticker,
		       a.url AS article_url, a.source, a.published_at
		FROM signals s
		JOIN companies c ON c.id = s.company_id
		JOIN articles a ON a.id = s.article_id
		WHERE s.company_id = $1
		ORDER BY s.created_at DESC
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to select company signals: %w", err)
	}
	return signals, nil
}

// AddAction appends one outreach action to the log.
func (r *Repository) AddAction(ctx context.Context, companyID string, kind models.ActionKind, note, territory *string) (*models.OutreachAction, error) {
	var action models.OutreachAction
	err := r.db.DB().QueryRowxContext(ctx, `
		INSERT INTO outreach_actions (company_id, kind, note, territory)
		VALUES ($1, $2, $3, $4)
		RETURNING id, company_id, kind, note, territory, created_at
	`, companyID, kind, note, territory).StructScan(&action)
	if err != nil {
		return nil, fmt.Errorf("failed to add outreach action: %w", err)
	}
	return &action, nil
}

// GetActions lists a company's outreach log, newest first.
func (r *Repository) GetActions(ctx context.Context, companyID string) ([]models.OutreachAction, error) {
	var actions []models.OutreachAction
	err := r.db.DB().SelectContext(ctx, &actions, `
		SELECT id, company_id, kind, note, territory, created_at
		FROM outreach_actions
		WHERE company_id = $1
		ORDER BY created_at DESC
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list outreach actions: %w", err)
	}
	return actions, nil
}

// DeleteActionsByKind removes a company's actions of one kind (un-snoozing a
// company, clearing its contact history). Returns the number removed.
func (r *Repository) DeleteActionsByKind(ctx context.Context, companyID string, kind models.ActionKind) (int64, error) {
	res, err := r.db.DB().ExecContext(ctx, `
		DELETE FROM outreach_actions
		WHERE company_id = $1 AND kind = $2
	`, companyID, kind)
	if err != nil {
		return 0, fmt.Errorf("failed to delete outreach actions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// GetHiddenCompanyIDs returns companies that should be suppressed from the
// worklist: contacted within contactedDays or snoozed within snoozedDays.
func (r *Repository) GetHiddenCompanyIDs(ctx context.Context, contactedDays, snoozedDays int) (map[string]bool, error) {
	var ids []string
	err := r.db.DB().SelectContext(ctx, &ids, `
		SELECT DISTINCT company_id FROM outreach_actions
		WHERE (kind = 'contacted' AND created_at >= NOW() - ($1 || ' days')::interval)
		   OR (kind = 'snoozed'   AND created_at >= NOW() - ($2 || ' days')::interval)
	`, contactedDays, snoozedDays)
	if err != nil {
		return nil, fmt.Errorf("failed to select hidden companies: %w", err)
	}

	hidden := make(map[string]bool, len(ids))
	for _, id := range ids {
		hidden[id] = true
	}
	return hidden, nil
}
