package workers

import (
	"context"

	"github.com/salesintel/tracker/internal/financials"
)

// FinancialsWorker refreshes stale financial snapshots on a schedule.
type FinancialsWorker struct {
	refresher *financials.Refresher
}

// NewFinancialsWorker creates the scheduled refresh job.
func NewFinancialsWorker(refresher *financials.Refresher) *FinancialsWorker {
	return &FinancialsWorker{refresher: refresher}
}

// Name returns worker name for logging
func (w *FinancialsWorker) Name() string { return "financials" }

// Run executes one refresh pass.
func (w *FinancialsWorker) Run(ctx context.Context) error {
	_, err := w.refresher.Refresh(ctx)
	return err
}
