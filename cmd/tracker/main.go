package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/lib/pq"

	"github.com/salesintel/tracker/internal/adapters/classifier"
	"github.com/salesintel/tracker/internal/adapters/config"
	"github.com/salesintel/tracker/internal/adapters/database"
	"github.com/salesintel/tracker/internal/adapters/feed"
	"github.com/salesintel/tracker/internal/adapters/market"
	"github.com/salesintel/tracker/internal/adapters/metrics"
	redisAdapter "github.com/salesintel/tracker/internal/adapters/redis"
	"github.com/salesintel/tracker/internal/adapters/telegram"
	"github.com/salesintel/tracker/internal/api"
	"github.com/salesintel/tracker/internal/financials"
	"github.com/salesintel/tracker/internal/outreach"
	"github.com/salesintel/tracker/internal/pipeline"
	"github.com/salesintel/tracker/internal/watchlist"
	"github.com/salesintel/tracker/internal/workers"
	"github.com/salesintel/tracker/pkg/logger"
	"github.com/salesintel/tracker/pkg/templates"
	"github.com/salesintel/tracker/pkg/worker"
)

func main() {
	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("IR signal tracker starting...")

	// Database and migrations
	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db.Conn(), cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Prompt templates
	templateManager, err := templates.NewManager(cfg.Server.TemplatesPath)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	classifier.SetTemplateRenderer(templateManager)

	// Optional distributed run lock
	var pipelineLock, refreshLock pipeline.Locker
	pipelineLock = &pipeline.LocalLock{}
	refreshLock = &pipeline.LocalLock{}
	if cfg.Redis.Host != "" {
		redisClient, err := redisAdapter.New(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		pipelineLock = redisClient.NewRunLock("pipeline")
		refreshLock = redisClient.NewRunLock("financials")
	}

	// Optional run-metrics sink
	var sink pipeline.MetricsSink
	if cfg.ClickHouse.DSN != "" {
		chSink, err := metrics.NewSink(&cfg.ClickHouse)
		if err != nil {
			logger.Warn("ClickHouse not available, run metrics disabled", zap.Error(err))
		} else {
			defer chSink.Close()
			sink = chSink
		}
	}

	// Optional hot-company alerts
	var notifier workers.HotNotifier
	if cfg.Telegram.BotToken != "" {
		tg, err := telegram.NewNotifier(&cfg.Telegram)
		if err != nil {
			logger.Warn("telegram not available, alerts disabled", zap.Error(err))
		} else {
			notifier = tg
		}
	}

	// Repositories and domain services
	watchlistRepo := watchlist.NewRepository(db)
	pipelineRepo := pipeline.NewRepository(db)
	outreachRepo := outreach.NewRepository(db)
	financialsRepo := financials.NewRepository(db)

	feedProvider := feed.NewGoogleNewsProvider(cfg.Feed.MaxArticlesPerCompany, cfg.Feed.Timeout)
	classifierSvc := classifier.NewAnthropicClassifier(&cfg.Anthropic, cfg.Pipeline.MinPainForTalkingPoint)
	marketSource := market.NewYahooProvider(cfg.Financials.Timeout)

	runner := pipeline.NewRunner(watchlistRepo, pipelineRepo, feedProvider, classifierSvc, pipelineLock, sink, &cfg.Pipeline)
	refresher := financials.NewRefresher(financialsRepo, marketSource, refreshLock, cfg.Financials.FreshnessWindow)
	aggregator := outreach.NewAggregator(outreachRepo, financialsRepo, &cfg.Urgency)

	// Scheduled runs, when configured
	group := worker.NewGroup(ctx)
	if cfg.Pipeline.Interval > 0 {
		group.Add(workers.NewPipelineWorker(runner, aggregator, notifier), cfg.Pipeline.Interval)
	}
	if cfg.Financials.Interval > 0 {
		group.Add(workers.NewFinancialsWorker(refresher), cfg.Financials.Interval)
	}
	group.Start()
	defer group.Stop(30 * time.Second)

	// HTTP API
	server := api.NewServer(cfg, db, watchlistRepo, outreachRepo, aggregator, financialsRepo, runner, refresher)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("api server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Warn("api server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}
