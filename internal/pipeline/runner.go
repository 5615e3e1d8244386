package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/salesintel/tracker/internal/adapters/classifier"
	"github.com/salesintel/tracker/internal/adapters/config"
	"github.com/salesintel/tracker/internal/adapters/feed"
	"github.com/salesintel/tracker/pkg/logger"
	"github.com/salesintel/tracker/pkg/models"
	"github.com/salesintel/tracker/pkg/worker"
)

// Store is the article/signal persistence surface the runner needs.
type Store interface {
	ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error)
	InsertArticle(ctx context.Context, companyID string, item models.FeedItem) (*models.Article, bool, error)
	InsertSignal(ctx context.Context, articleID, companyID string, c models.Classification, talkingPoint *string) (*models.Signal, error)
}

// CompanySource lists the companies a run processes.
type CompanySource interface {
	GetCompanies(ctx context.Context, activeOnly bool) ([]models.Company, error)
}

// Locker guards against overlapping runs. The Redis-backed implementation
// spans instances; LocalLock covers a single process.
type Locker interface {
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// MetricsSink records completed runs. Optional.
type MetricsSink interface {
	InsertRun(ctx context.Context, startedAt time.Time, duration time.Duration, stats models.RunStats) error
}

// LocalLock is the in-process fallback Locker used when Redis is not
// configured.
type LocalLock struct {
	mu sync.Mutex
}

// TryAcquire takes the lock without blocking.
func (l *LocalLock) TryAcquire(ctx context.Context) (bool, error) {
	return l.mu.TryLock(), nil
}

// Release releases the lock.
func (l *LocalLock) Release(ctx context.Context) error {
	l.mu.Unlock()
	return nil
}

// Runner drives the per-company fetch → pre-filter → dedup → classify →
// persist sequence across all active companies with bounded parallelism.
// Failures are absorbed at the smallest scope possible and surface only as
// aggregate counters.
type Runner struct {
	companies  CompanySource
	store      Store
	feed       feed.Provider
	classifier classifier.Service
	pool       *worker.Pool
	lock       Locker
	metrics    MetricsSink
	cfg        *config.PipelineConfig
}

// NewRunner creates the pipeline orchestrator. metrics may be nil.
func NewRunner(
	companies CompanySource,
	store Store,
	feedProvider feed.Provider,
	classifierSvc classifier.Service,
	lock Locker,
	metrics MetricsSink,
	cfg *config.PipelineConfig,
) *Runner {
	return &Runner{
		companies:  companies,
		store:      store,
		feed:       feedProvider,
		classifier: classifierSvc,
		pool:       worker.NewPool(cfg.Concurrency),
		lock:       lock,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// Run executes one full pipeline pass. A run already in progress elsewhere
// returns an error without doing any work. Per-company failures are counted,
// never propagated; totals are accurate even under partial failure.
func (r *Runner) Run(ctx context.Context) (models.RunStats, error) {
	acquired, err := r.lock.TryAcquire(ctx)
	if err != nil {
		return models.RunStats{}, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !acquired {
		return models.RunStats{}, fmt.Errorf("pipeline run already in progress")
	}
	defer r.lock.Release(ctx)

	startedAt := time.Now()

	companies, err := r.companies.GetCompanies(ctx, true)
	if err != nil {
		return models.RunStats{}, fmt.Errorf("failed to list companies: %w", err)
	}

	stats := models.RunStats{Companies: len(companies)}
	perCompany := make([]models.RunStats, len(companies))

	tasks := make([]worker.Task, len(companies))
	for i, company := range companies {
		idx, c := i, company
		tasks[i] = worker.Task{
			Name: c.Name,
			Run: func(ctx context.Context) error {
				cs, err := r.processCompany(ctx, c)
				perCompany[idx] = cs
				return err
			},
		}
	}

	results := r.pool.RunAll(ctx, tasks)
	for i, res := range results {
		stats.Add(perCompany[i])
		if res.Err != nil {
			stats.Errors++
			logger.Warn("company pipeline failed",
				zap.String("company", res.Name),
				zap.Error(res.Err),
			)
		}
	}

	duration := time.Since(startedAt)
	logger.Info("pipeline run complete",
		zap.Int("companies", stats.Companies),
		zap.Int("articles_fetched", stats.ArticlesFetched),
		zap.Int("articles_new", stats.ArticlesNew),
		zap.Int("signals_created", stats.SignalsCreated),
		zap.Int("errors", stats.Errors),
		zap.Duration("duration", duration),
	)

	if r.metrics != nil {
		if err := r.metrics.InsertRun(ctx, startedAt, duration, stats); err != nil {
			logger.Warn("failed to record run metrics", zap.Error(err))
		}
	}

	return stats, nil
}

// processCompany runs the full sequence for one company. A returned error
// means the whole company failed (feed unreachable, store down for the dedup
// check); smaller faults are absorbed into the counters.
func (r *Runner) processCompany(ctx context.Context, company models.Company) (models.RunStats, error) {
	var stats models.RunStats

	items, err := r.feed.FetchCompanyNews(ctx, company.Name, company.TickerSymbol())
	if err != nil {
		return stats, fmt.Errorf("feed fetch failed: %w", err)
	}
	stats.ArticlesFetched = len(items)

	onTopic := make([]models.FeedItem, 0, len(items))
	urls := make([]string, 0, len(items))
	for _, item := range items {
		if !TitleMentionsCompany(item.Title, company.Name, company.TickerSymbol(), company.Aliases) {
			continue
		}
		onTopic = append(onTopic, item)
		urls = append(urls, item.URL)
	}

	existing, err := r.store.ExistingURLs(ctx, urls)
	if err != nil {
		return stats, fmt.Errorf("dedup check failed: %w", err)
	}

	// Insert order must hold through classification: judgments come back
	// keyed by position in the submitted batch.
	var inserted []*models.Article
	for _, item := range onTopic {
		if existing[item.URL] {
			continue
		}
		article, created, err := r.store.InsertArticle(ctx, company.ID, item)
		if err != nil {
			stats.Errors++
			continue
		}
		if !created {
			continue
		}
		inserted = append(inserted, article)
	}
	stats.ArticlesNew = len(inserted)

	for base := 0; base < len(inserted); base += r.cfg.ClassifyBatchSize {
		end := base + r.cfg.ClassifyBatchSize
		if end > len(inserted) {
			end = len(inserted)
		}
		r.classifyChunk(ctx, company, inserted[base:end], &stats)
	}

	return stats, nil
}

// classifyChunk classifies one batch of freshly inserted articles and
// persists the resulting signals. An unusable batch response degrades to one
// call per headline; only the individually failing headline is dropped.
func (r *Runner) classifyChunk(ctx context.Context, company models.Company, chunk []*models.Article, stats *models.RunStats) {
	headlines := make([]classifier.Headline, len(chunk))
	for i, a := range chunk {
		headlines[i] = classifier.Headline{Index: i, Title: a.Title, Source: a.Source}
	}

	judgments, err := r.classifier.ClassifyBatch(ctx, company.Name, headlines)
	if err != nil || len(judgments) == 0 {
		if err != nil {
			logger.Warn("batch classification failed, falling back to per-item",
				zap.String("company", company.Name),
				zap.Error(err),
			)
		}
		judgments = make(map[int]models.Classification, len(headlines))
		for _, h := range headlines {
			c, err := r.classifier.ClassifyOne(ctx, company.Name, h)
			if err != nil {
				stats.Errors++
				logger.Warn("headline classification failed, skipping",
					zap.String("company", company.Name),
					zap.String("title", h.Title),
					zap.Error(err),
				)
				continue
			}
			judgments[h.Index] = c
		}
	}

	for i, article := range chunk {
		c, ok := judgments[i]
		if !ok {
			continue
		}

		var talkingPoint *string
		if c.TalkingPoint != "" {
			talkingPoint = &c.TalkingPoint
		} else if c.PainScore >= r.cfg.MinPainForTalkingPoint {
			tp, err := r.classifier.GenerateTalkingPoint(ctx, company.Name, c)
			if err != nil {
				logger.Warn("talking point generation failed, persisting signal without one",
					zap.String("company", company.Name),
					zap.Error(err),
				)
			} else if tp != "" {
				talkingPoint = &tp
			}
		}

		if _, err := r.store.InsertSignal(ctx, article.ID, company.ID, c, talkingPoint); err != nil {
			stats.Errors++
			continue
		}
		stats.SignalsCreated++
	}
}
