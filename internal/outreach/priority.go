package outreach

import (
	"context"
	"sort"
	"time"

	"github.com/salesintel/tracker/internal/adapters/config"
	"github.com/salesintel/tracker/pkg/models"
)

// SignalSource is the read surface the aggregator needs.
type SignalSource interface {
	GetQualifyingSignals(ctx context.Context, window time.Duration, minRelevance float64) ([]models.SignalView, error)
	GetHiddenCompanyIDs(ctx context.Context, contactedDays, snoozedDays int) (map[string]bool, error)
}

// FinancialsSource supplies the snapshots behind the earnings boost.
type FinancialsSource interface {
	GetSnapshots(ctx context.Context) (map[string]models.FinancialSnapshot, error)
}

// Aggregator rolls per-signal pain into the ranked per-company worklist.
// Summaries are derived on every read, never persisted.
type Aggregator struct {
	signals    SignalSource
	financials FinancialsSource
	cfg        *config.UrgencyConfig
}

// NewAggregator creates the pain aggregator. financials may be nil, which
// disables the earnings boost.
func NewAggregator(signals SignalSource, financials FinancialsSource, cfg *config.UrgencyConfig) *Aggregator {
	return &Aggregator{
		signals:    signals,
		financials: financials,
		cfg:        cfg,
	}
}

// Summaries computes the ranked worklist. When includeHidden is false,
// recently contacted or snoozed companies are suppressed.
func (a *Aggregator) Summaries(ctx context.Context, includeHidden bool) ([]models.CompanyPainSummary, error) {
	signals, err := a.signals.GetQualifyingSignals(ctx, a.cfg.SummaryWindow, a.cfg.MinRelevance)
	if err != nil {
		return nil, err
	}

	hidden := map[string]bool{}
	if !includeHidden {
		hidden, err = a.signals.GetHiddenCompanyIDs(ctx, a.cfg.HiddenContactedDays, a.cfg.HiddenSnoozedDays)
		if err != nil {
			return nil, err
		}
	}

	var snapshots map[string]models.FinancialSnapshot
	if a.financials != nil {
		snapshots, err = a.financials.GetSnapshots(ctx)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	summaries := Aggregate(signals, now)

	out := summaries[:0]
	for i := range summaries {
		s := summaries[i]
		if hidden[s.CompanyID] {
			continue
		}
		s.Urgency = a.ComputeUrgency(s.MaxPainScore, s.NewestSignalAgeHrs)
		if snap, ok := snapshots[s.CompanyID]; ok {
			s.Urgency = a.ApplyEarningsBoost(s.Urgency, snap.NextEarnings, now)
		}
		out = append(out, s)
	}
	return out, nil
}

// Aggregate groups signals by company and computes max pain (first max
// wins), signal count and newest-signal age, sorted by descending pain.
func Aggregate(signals []models.SignalView, now time.Time) []models.CompanyPainSummary {
	byCompany := map[string]*models.CompanyPainSummary{}
	var order []string

	for _, sv := range signals {
		s, ok := byCompany[sv.CompanyID]
		if !ok {
			s = &models.CompanyPainSummary{
				CompanyID:      sv.CompanyID,
				Name:           sv.CompanyName,
				Ticker:         sv.Ticker,
				MaxPainScore:   sv.PainScore,
				MaxPainSummary: sv.Summary,
			}
			byCompany[sv.CompanyID] = s
			order = append(order, sv.CompanyID)
		} else if sv.PainScore > s.MaxPainScore {
			// Strictly greater: on a tie the earlier signal keeps the slot.
			s.MaxPainScore = sv.PainScore
			s.MaxPainSummary = sv.Summary
		}

		s.SignalCount++
		s.Signals = append(s.Signals, sv)

		age := now.Sub(sv.CreatedAt).Hours()
		if s.SignalCount == 1 || age < s.NewestSignalAgeHrs {
			s.NewestSignalAgeHrs = age
		}
	}

	out := make([]models.CompanyPainSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byCompany[id])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MaxPainScore > out[j].MaxPainScore
	})
	return out
}

// ComputeUrgency classifies (max pain, freshest-signal age in hours). Hot
// requires both conditions; warm requires either one.
func (a *Aggregator) ComputeUrgency(pain, ageHours float64) models.Urgency {
	if pain >= a.cfg.HotMinPain && ageHours <= a.cfg.HotMaxAgeHours {
		return models.UrgencyHot
	}
	if pain >= a.cfg.WarmMinPain || ageHours <= a.cfg.WarmMaxAgeHours {
		return models.UrgencyWarm
	}
	return models.UrgencyCold
}

// ApplyEarningsBoost promotes warm to hot when the next earnings date falls
// within the boost window. Cold never skips a level; absent earnings data is
// a no-op.
func (a *Aggregator) ApplyEarningsBoost(base models.Urgency, nextEarnings *time.Time, now time.Time) models.Urgency {
	if base != models.UrgencyWarm || nextEarnings == nil {
		return base
	}

	until := nextEarnings.Sub(now)
	if until >= 0 && until <= time.Duration(a.cfg.EarningsBoostDays)*24*time.Hour {
		return models.UrgencyHot
	}
	return base
}
