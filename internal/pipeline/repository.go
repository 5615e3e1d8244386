package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/salesintel/tracker/internal/adapters/database"
	"github.com/salesintel/tracker/pkg/models"
)

// Repository persists articles and signals. The unique constraint on
// articles.url is the sole dedup mechanism; inserts are idempotent under
// concurrent runs.
type Repository struct {
	db *database.DB
}

// NewRepository creates new pipeline repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// ExistingURLs batch-checks candidate URLs and returns the subset already in
// the store.
func (r *Repository) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	if len(urls) == 0 {
		return map[string]bool{}, nil
	}

	var known []string
	err := r.db.DB().SelectContext(ctx, &known, `
		SELECT url FROM articles WHERE url = ANY($1)
	`, pq.Array(urls))
	if err != nil {
		return nil, fmt.Errorf("failed to check existing URLs: %w", err)
	}

	existing := make(map[string]bool, len(known))
	for _, u := range known {
		existing[u] = true
	}
	return existing, nil
}

// InsertArticle creates an article. A URL already present (including one
// inserted by a concurrent run) is a no-op: created is false and no article
// is returned.
func (r *Repository) InsertArticle(ctx context.Context, companyID string, item models.FeedItem) (*models.Article, bool, error) {
	var article models.Article
	err := r.db.DB().QueryRowxContext(ctx, `
		INSERT INTO articles (company_id, title, url, source, published_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO NOTHING
		RETURNING id, company_id, title, url, source, published_at, fetched_at
	`, companyID, item.Title, item.URL, item.Source, item.PublishedAt).StructScan(&article)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert article: %w", err)
	}
	return &article, true, nil
}

// InsertSignal records the classification judgment for an article. One
// signal per article; a conflict means a concurrent run already classified
// it and resolves to a no-op.
func (r *Repository) InsertSignal(ctx context.Context, articleID, companyID string, c models.Classification, talkingPoint *string) (*models.Signal, error) {
	var signal models.Signal
	err := r.db.DB().QueryRowxContext(ctx, `
		INSERT INTO signals (article_id, company_id, summary, relevance_score, category, pain_score, talking_point)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (article_id) DO NOTHING
		RETURNING id, article_id, company_id, summary, relevance_score, category, pain_score, talking_point, created_at
	`, articleID, companyID, c.Summary, c.RelevanceScore, c.Category, c.PainScore, talkingPoint).StructScan(&signal)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert signal: %w", err)
	}
	return &signal, nil
}
