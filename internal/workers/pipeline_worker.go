package workers

import (
	"context"

	"go.uber.org/zap"

	"github.com/salesintel/tracker/internal/outreach"
	"github.com/salesintel/tracker/internal/pipeline"
	"github.com/salesintel/tracker/pkg/logger"
	"github.com/salesintel/tracker/pkg/models"
)

// HotNotifier pushes hot-company alerts after a run. Optional.
type HotNotifier interface {
	SendHotCompanies(ctx context.Context, summaries []models.CompanyPainSummary) error
}

// PipelineWorker runs the full news pipeline on a schedule and alerts on the
// companies the run turned hot.
type PipelineWorker struct {
	runner     *pipeline.Runner
	aggregator *outreach.Aggregator
	notifier   HotNotifier
}

// NewPipelineWorker creates the scheduled pipeline job. notifier may be nil.
func NewPipelineWorker(runner *pipeline.Runner, aggregator *outreach.Aggregator, notifier HotNotifier) *PipelineWorker {
	return &PipelineWorker{
		runner:     runner,
		aggregator: aggregator,
		notifier:   notifier,
	}
}

// Name returns worker name for logging
func (w *PipelineWorker) Name() string { return "pipeline" }

// Run executes one pipeline pass. A run skipped because another instance
// holds the lock is not an error worth failing the iteration for.
func (w *PipelineWorker) Run(ctx context.Context) error {
	stats, err := w.runner.Run(ctx)
	if err != nil {
		return err
	}

	if w.notifier == nil || stats.SignalsCreated == 0 {
		return nil
	}

	summaries, err := w.aggregator.Summaries(ctx, false)
	if err != nil {
		logger.Warn("failed to compute summaries for alerting", zap.Error(err))
		return nil
	}
	if err := w.notifier.SendHotCompanies(ctx, summaries); err != nil {
		logger.Warn("failed to send hot-company alert", zap.Error(err))
	}
	return nil
}
