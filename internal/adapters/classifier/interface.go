package classifier

import (
	"context"

	"github.com/salesintel/tracker/pkg/models"
)

// Headline is one candidate submitted for classification, tagged by its
// position in the company's article batch.
type Headline struct {
	Index  int
	Title  string
	Source string
}

// Service turns headlines into structured judgments. Implementations call a
// rate-limited, fallible external service; callers own the fallback policy.
type Service interface {
	// ClassifyBatch judges up to one batch of headlines in a single call.
	// The result is keyed by headline index; entries the response omitted,
	// returned with out-of-range indexes, or returned without a pain score
	// are absent from the map. A response that cannot be parsed yields an
	// empty map and no error.
	ClassifyBatch(ctx context.Context, companyName string, items []Headline) (map[int]models.Classification, error)

	// ClassifyOne judges a single headline.
	ClassifyOne(ctx context.Context, companyName string, item Headline) (models.Classification, error)

	// GenerateTalkingPoint produces an outreach opener for a high-pain
	// classification.
	GenerateTalkingPoint(ctx context.Context, companyName string, c models.Classification) (string, error)
}
