package models

import "time"

// SignalCategory is the closed enumeration of signal kinds. Anything outside
// the set normalizes to CategoryNeutral.
type SignalCategory string

const (
	CategoryEarningsMiss     SignalCategory = "earnings_miss"
	CategoryGuidanceCut      SignalCategory = "guidance_cut"
	CategoryExecutiveChange  SignalCategory = "executive_change"
	CategoryActivistInvestor SignalCategory = "activist_investor"
	CategoryDowngrade        SignalCategory = "downgrade"
	CategoryLawsuit          SignalCategory = "lawsuit"
	CategoryLayoffs          SignalCategory = "layoffs"
	CategoryAcquisition      SignalCategory = "acquisition"
	CategoryGeneral          SignalCategory = "general"
	CategoryNeutral          SignalCategory = "neutral"
)

var validCategories = map[SignalCategory]bool{
	CategoryEarningsMiss:     true,
	CategoryGuidanceCut:      true,
	CategoryExecutiveChange:  true,
	CategoryActivistInvestor: true,
	CategoryDowngrade:        true,
	CategoryLawsuit:          true,
	CategoryLayoffs:          true,
	CategoryAcquisition:      true,
	CategoryGeneral:          true,
	CategoryNeutral:          true,
}

// NormalizeCategory collapses unrecognized categories to neutral.
func NormalizeCategory(raw string) SignalCategory {
	c := SignalCategory(raw)
	if validCategories[c] {
		return c
	}
	return CategoryNeutral
}

// Categories returns the closed enumeration in a stable order.
func Categories() []SignalCategory {
	return []SignalCategory{
		CategoryEarningsMiss,
		CategoryGuidanceCut,
		CategoryExecutiveChange,
		CategoryActivistInvestor,
		CategoryDowngrade,
		CategoryLawsuit,
		CategoryLayoffs,
		CategoryAcquisition,
		CategoryGeneral,
		CategoryNeutral,
	}
}

// ClampScore bounds a relevance or pain score to [0,1].
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// Signal is a classified, scored news event about a company. One signal per
// qualifying article; never mutated after creation.
type Signal struct {
	ID             string         `json:"id" db:"id"`
	ArticleID      string         `json:"article_id" db:"article_id"`
	CompanyID      string         `json:"company_id" db:"company_id"`
	Summary        string         `json:"summary" db:"summary"`
	RelevanceScore float64        `json:"relevance_score" db:"relevance_score"`
	Category       SignalCategory `json:"category" db:"category"`
	PainScore      float64        `json:"pain_score" db:"pain_score"`
	TalkingPoint   *string        `json:"talking_point,omitempty" db:"talking_point"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// Classification is the structured judgment produced for one headline.
// Fields missing from the raw response carry these defaults: relevance 0.5,
// category neutral, talking point empty.
type Classification struct {
	Summary        string         `json:"summary"`
	RelevanceScore float64        `json:"relevance_score"`
	Category       SignalCategory `json:"category"`
	PainScore      float64        `json:"pain_score"`
	TalkingPoint   string         `json:"talking_point,omitempty"`
}
