package feed

import (
	"context"

	"github.com/salesintel/tracker/pkg/models"
)

// Provider fetches candidate news items for a company.
type Provider interface {
	// GetName returns provider name
	GetName() string

	// FetchCompanyNews returns a bounded candidate list for a company.
	// A fetch or parse fault fails the whole call; individual entries with
	// missing fields are tolerated.
	FetchCompanyNews(ctx context.Context, companyName, ticker string) ([]models.FeedItem, error)
}
