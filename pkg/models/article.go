package models

import "time"

// FeedItem is one entry parsed from a news feed, before any persistence.
// PublishedAt is nil when the feed carried no parseable date.
type FeedItem struct {
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Source      string     `json:"source"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// Article is a fetched news article tied to a company. The URL is globally
// unique and acts as the dedup key. Articles are immutable once created.
type Article struct {
	ID          string     `json:"id" db:"id"`
	CompanyID   string     `json:"company_id" db:"company_id"`
	Title       string     `json:"title" db:"title"`
	URL         string     `json:"url" db:"url"`
	Source      string     `json:"source" db:"source"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
	FetchedAt   time.Time  `json:"fetched_at" db:"fetched_at"`
}
