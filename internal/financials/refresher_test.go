package financials

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/salesintel/tracker/internal/adapters/market"
	"github.com/salesintel/tracker/pkg/logger"
	"github.com/salesintel/tracker/pkg/models"
)

func setupTest(t *testing.T) {
	t.Helper()
	if logger.Log == nil {
		if err := logger.Init("error", ""); err != nil {
			t.Fatalf("Failed to initialize logger: %v", err)
		}
	}
}

func nullDec(v int64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromInt(v), Valid: true}
}

func TestCapTier(t *testing.T) {
	tests := []struct {
		name string
		cap  decimal.NullDecimal
		want models.MarketCapTier
	}{
		{"absent cap is unknown", decimal.NullDecimal{}, models.TierUnknown},
		{"below 2B is small", nullDec(1_500_000_000), models.TierSmall},
		{"exactly 2B is mid", nullDec(2_000_000_000), models.TierMid},
		{"below 10B is mid", nullDec(9_999_999_999), models.TierMid},
		{"exactly 10B is large", nullDec(10_000_000_000), models.TierLarge},
		{"above 10B is large", nullDec(250_000_000_000), models.TierLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CapTier(tt.cap); got != tt.want {
				t.Errorf("CapTier = %s, want %s", got, tt.want)
			}
		})
	}
}

func barsDaysAgo(closes map[int]float64) []market.PriceBar {
	// Keys are days ago; returned oldest first.
	maxAgo := 0
	for ago := range closes {
		if ago > maxAgo {
			maxAgo = ago
		}
	}
	var bars []market.PriceBar
	for ago := maxAgo; ago >= 0; ago-- {
		if c, ok := closes[ago]; ok {
			bars = append(bars, market.PriceBar{
				Date:  time.Now().AddDate(0, 0, -ago),
				Close: decimal.NewFromFloat(c),
			})
		}
	}
	return bars
}

func TestChangeOverDays(t *testing.T) {
	t.Run("7d change with enough samples", func(t *testing.T) {
		bars := barsDaysAgo(map[int]float64{6: 100, 5: 102, 3: 104, 2: 108, 0: 110})
		got := ChangeOverDays(bars, 7, 5)
		if !got.Valid {
			t.Fatal("expected a change, got null")
		}
		want := decimal.NewFromFloat(0.10)
		if !got.Decimal.Equal(want) {
			t.Errorf("change = %s, want %s", got.Decimal, want)
		}
	})

	t.Run("7d change with too few samples is null", func(t *testing.T) {
		bars := barsDaysAgo(map[int]float64{6: 100, 3: 104, 0: 110})
		if got := ChangeOverDays(bars, 7, 5); got.Valid {
			t.Errorf("expected null, got %s", got.Decimal)
		}
	})

	t.Run("30d change uses oldest sample in window", func(t *testing.T) {
		bars := barsDaysAgo(map[int]float64{40: 50, 25: 80, 0: 100})
		got := ChangeOverDays(bars, 30, 2)
		if !got.Valid {
			t.Fatal("expected a change, got null")
		}
		// Baseline is the 25-days-ago close, not the out-of-window one.
		want := decimal.NewFromFloat(0.25)
		if !got.Decimal.Equal(want) {
			t.Errorf("change = %s, want %s", got.Decimal, want)
		}
	})

	t.Run("zero baseline is null", func(t *testing.T) {
		bars := barsDaysAgo(map[int]float64{5: 0, 0: 10})
		if got := ChangeOverDays(bars, 7, 2); got.Valid {
			t.Errorf("expected null, got %s", got.Decimal)
		}
	})
}

type fakeSource struct {
	quoteErr    error
	cap         decimal.NullDecimal
	bars        []market.PriceBar
	barsErr     error
	earnings    market.EarningsDates
	earningsErr error
}

func (f *fakeSource) GetName() string { return "fake" }

func (f *fakeSource) GetQuote(ctx context.Context, ticker string) (market.Quote, error) {
	if f.quoteErr != nil {
		return market.Quote{}, f.quoteErr
	}
	return market.Quote{MarketCap: f.cap}, nil
}

func (f *fakeSource) GetPriceHistory(ctx context.Context, ticker string, days int) ([]market.PriceBar, error) {
	if f.barsErr != nil {
		return nil, f.barsErr
	}
	return f.bars, nil
}

func (f *fakeSource) GetEarningsDates(ctx context.Context, ticker string) (market.EarningsDates, error) {
	if f.earningsErr != nil {
		return market.EarningsDates{}, f.earningsErr
	}
	return f.earnings, nil
}

type fakeSnapshotStore struct {
	stale    []models.Company
	upserted []*models.FinancialSnapshot
}

func (f *fakeSnapshotStore) GetStaleCompanies(ctx context.Context, window time.Duration) ([]models.Company, error) {
	return f.stale, nil
}

func (f *fakeSnapshotStore) Upsert(ctx context.Context, s *models.FinancialSnapshot) error {
	f.upserted = append(f.upserted, s)
	return nil
}

func TestBuildSnapshotDegradesPerField(t *testing.T) {
	setupTest(t)
	next := time.Now().AddDate(0, 0, 10)
	source := &fakeSource{
		quoteErr: fmt.Errorf("ticker not found"),
		bars:     barsDaysAgo(map[int]float64{25: 80, 6: 90, 5: 92, 3: 95, 2: 98, 0: 100}),
		earnings: market.EarningsDates{Next: &next},
	}
	r := NewRefresher(&fakeSnapshotStore{}, source, &noopLock{}, 24*time.Hour)

	s := r.BuildSnapshot(context.Background(), "c1", "ACME")

	if s.MarketCapTier != models.TierUnknown || s.MarketCap.Valid {
		t.Errorf("failed quote should leave cap unknown, got tier %s", s.MarketCapTier)
	}
	if !s.PriceChange7D.Valid || !s.PriceChange30D.Valid {
		t.Error("price changes should still be computed when only the quote fails")
	}
	if s.NextEarnings == nil {
		t.Error("earnings should still be set when only the quote fails")
	}
}

func TestRefreshCountsPerCompany(t *testing.T) {
	setupTest(t)
	store := &fakeSnapshotStore{stale: []models.Company{
		{ID: "c1", Name: "Acme", Ticker: strPtr("ACME")},
		{ID: "c2", Name: "Globex", Ticker: strPtr("GLBX")},
	}}
	source := &fakeSource{cap: nullDec(3_000_000_000)}
	r := NewRefresher(store, source, &noopLock{}, 24*time.Hour)

	stats, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if stats.CompaniesRefreshed != 2 || stats.CompaniesFailed != 0 {
		t.Errorf("stats = %+v, want 2 refreshed, 0 failed", stats)
	}
	if len(store.upserted) != 2 {
		t.Fatalf("upserted %d snapshots, want 2", len(store.upserted))
	}
	if store.upserted[0].MarketCapTier != models.TierMid {
		t.Errorf("tier = %s, want mid", store.upserted[0].MarketCapTier)
	}
}

func TestSnapshotStaleness(t *testing.T) {
	now := time.Now()
	window := 24 * time.Hour

	old := models.FinancialSnapshot{UpdatedAt: now.Add(-30 * time.Hour)}
	if !old.IsStale(window, now) {
		t.Error("snapshot updated 30h ago should be stale with a 24h window")
	}

	fresh := models.FinancialSnapshot{UpdatedAt: now.Add(-10 * time.Hour)}
	if fresh.IsStale(window, now) {
		t.Error("snapshot updated 10h ago should not be stale with a 24h window")
	}
}

func strPtr(s string) *string { return &s }

type noopLock struct{}

func (noopLock) TryAcquire(ctx context.Context) (bool, error) { return true, nil }
func (noopLock) Release(ctx context.Context) error            { return nil }
