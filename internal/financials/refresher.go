package financials

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/salesintel/tracker/internal/adapters/market"
	"github.com/salesintel/tracker/pkg/logger"
	"github.com/salesintel/tracker/pkg/models"
)

// Market-cap tier thresholds in dollars.
var (
	midCapFloor   = decimal.NewFromInt(2_000_000_000)
	largeCapFloor = decimal.NewFromInt(10_000_000_000)
)

// minSamples7D is the minimum trading-day closes required before a 7-day
// change is computed.
const minSamples7D = 5

// SnapshotStore is the persistence surface the refresher needs.
type SnapshotStore interface {
	GetStaleCompanies(ctx context.Context, window time.Duration) ([]models.Company, error)
	Upsert(ctx context.Context, s *models.FinancialSnapshot) error
}

// Locker guards against overlapping refresh runs.
type Locker interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Refresher rebuilds financial snapshots for companies whose data has gone
// stale. Each field degrades independently; a company counts as failed only
// when its snapshot cannot be written at all.
type Refresher struct {
	store  SnapshotStore
	source market.Source
	lock   Locker
	window time.Duration
}

// NewRefresher creates the financials refresher.
func NewRefresher(store SnapshotStore, source market.Source, lock Locker, freshnessWindow time.Duration) *Refresher {
	return &Refresher{
		store:  store,
		source: source,
		lock:   lock,
		window: freshnessWindow,
	}
}

// Refresh updates every stale snapshot and reports how many companies were
// refreshed and how many failed. A refresh already in progress elsewhere
// returns an error without doing any work.
func (r *Refresher) Refresh(ctx context.Context) (models.RefreshStats, error) {
	acquired, err := r.lock.TryAcquire(ctx)
	if err != nil {
		return models.RefreshStats{}, fmt.Errorf("failed to acquire refresh lock: %w", err)
	}
	if !acquired {
		return models.RefreshStats{}, fmt.Errorf("financials refresh already in progress")
	}
	defer r.lock.Release(ctx)

	companies, err := r.store.GetStaleCompanies(ctx, r.window)
	if err != nil {
		return models.RefreshStats{}, fmt.Errorf("failed to select companies for refresh: %w", err)
	}

	var stats models.RefreshStats
	for _, company := range companies {
		if err := r.refreshCompany(ctx, company); err != nil {
			stats.CompaniesFailed++
			logger.Warn("financials refresh failed for company",
				zap.String("company", company.Name),
				zap.Error(err),
			)
			continue
		}
		stats.CompaniesRefreshed++
	}

	logger.Info("financials refresh complete",
		zap.Int("refreshed", stats.CompaniesRefreshed),
		zap.Int("failed", stats.CompaniesFailed),
	)
	return stats, nil
}

func (r *Refresher) refreshCompany(ctx context.Context, company models.Company) error {
	ticker := company.TickerSymbol()
	snapshot := r.BuildSnapshot(ctx, company.ID, ticker)
	return r.store.Upsert(ctx, snapshot)
}

// BuildSnapshot assembles a snapshot from the market source. Every lookup
// failure degrades its field to null/unknown instead of aborting.
func (r *Refresher) BuildSnapshot(ctx context.Context, companyID, ticker string) *models.FinancialSnapshot {
	snapshot := &models.FinancialSnapshot{
		CompanyID:     companyID,
		MarketCapTier: models.TierUnknown,
	}

	quote, err := r.source.GetQuote(ctx, ticker)
	if err != nil {
		logger.Debug("quote lookup failed", zap.String("ticker", ticker), zap.Error(err))
	} else {
		snapshot.MarketCap = quote.MarketCap
		snapshot.MarketCapTier = CapTier(quote.MarketCap)
	}

	bars, err := r.source.GetPriceHistory(ctx, ticker, 30)
	if err != nil {
		logger.Debug("price history lookup failed", zap.String("ticker", ticker), zap.Error(err))
	} else {
		snapshot.PriceChange7D = ChangeOverDays(bars, 7, minSamples7D)
		snapshot.PriceChange30D = ChangeOverDays(bars, 30, 2)
	}

	earnings, err := r.source.GetEarningsDates(ctx, ticker)
	if err != nil {
		logger.Debug("earnings lookup failed", zap.String("ticker", ticker), zap.Error(err))
	} else {
		snapshot.LastEarnings = earnings.Last
		snapshot.NextEarnings = earnings.Next
	}

	return snapshot
}

// CapTier buckets a market cap: small below $2B, mid below $10B, large
// above, unknown when the cap is absent.
func CapTier(cap decimal.NullDecimal) models.MarketCapTier {
	if !cap.Valid {
		return models.TierUnknown
	}
	switch {
	case cap.Decimal.LessThan(midCapFloor):
		return models.TierSmall
	case cap.Decimal.LessThan(largeCapFloor):
		return models.TierMid
	default:
		return models.TierLarge
	}
}

// ChangeOverDays computes (last-first)/first over the closes dated within
// the trailing number of days, using the oldest available sample as the
// baseline. Null when fewer than minSamples closes fall in the window or the
// baseline is zero.
func ChangeOverDays(bars []market.PriceBar, days, minSamples int) decimal.NullDecimal {
	cutoff := time.Now().AddDate(0, 0, -days)

	var window []market.PriceBar
	for _, b := range bars {
		if !b.Date.Before(cutoff) {
			window = append(window, b)
		}
	}

	if len(window) < minSamples {
		return decimal.NullDecimal{}
	}

	first := window[0].Close
	last := window[len(window)-1].Close
	if first.IsZero() {
		return decimal.NullDecimal{}
	}

	change := last.Sub(first).Div(first)
	return decimal.NullDecimal{Decimal: change, Valid: true}
}
