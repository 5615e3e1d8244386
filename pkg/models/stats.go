package models

// RunStats aggregates one pipeline run across all companies. Counters are
// always produced, even under partial failure.
type RunStats struct {
	Companies       int `json:"companies"`
	ArticlesFetched int `json:"articles_fetched"`
	ArticlesNew     int `json:"articles_new"`
	SignalsCreated  int `json:"signals_created"`
	Errors          int `json:"errors"`
}

// Add merges per-company stats into the run totals.
func (s *RunStats) Add(other RunStats) {
	s.ArticlesFetched += other.ArticlesFetched
	s.ArticlesNew += other.ArticlesNew
	s.SignalsCreated += other.SignalsCreated
	s.Errors += other.Errors
}

// RefreshStats aggregates one financials refresh pass.
type RefreshStats struct {
	CompaniesRefreshed int `json:"companies_refreshed"`
	CompaniesFailed    int `json:"companies_failed"`
}
