package models

import "time"

// Urgency is the three-state outreach priority classification.
type Urgency string

const (
	UrgencyHot  Urgency = "hot"
	UrgencyWarm Urgency = "warm"
	UrgencyCold Urgency = "cold"
)

// SignalView is a signal joined with its article, as read back for ranking
// and display.
type SignalView struct {
	Signal
	CompanyName string     `json:"company_name" db:"company_name"`
	Ticker      *string    `json:"ticker,omitempty" db:"ticker"`
	ArticleURL  string     `json:"article_url" db:"article_url"`
	Source      string     `json:"source" db:"source"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
}

// CompanyPainSummary is the derived per-company rollup behind the outreach
// worklist. Recomputed on every read, never persisted.
type CompanyPainSummary struct {
	CompanyID          string       `json:"company_id"`
	Name               string       `json:"name"`
	Ticker             *string      `json:"ticker,omitempty"`
	MaxPainScore       float64      `json:"max_pain_score"`
	MaxPainSummary     string       `json:"max_pain_summary"`
	SignalCount        int          `json:"signal_count"`
	NewestSignalAgeHrs float64      `json:"newest_signal_age_hours"`
	Urgency            Urgency      `json:"urgency"`
	Signals            []SignalView `json:"signals"`
}
