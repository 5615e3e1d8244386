package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/salesintel/tracker/internal/adapters/config"
	"github.com/salesintel/tracker/pkg/logger"
	"github.com/salesintel/tracker/pkg/models"
)

// Sink records pipeline run outcomes in ClickHouse for offline analysis.
//
// Expected table shape:
//
//	CREATE TABLE pipeline_runs (
//	    started_at       DateTime,
//	    duration_ms      Int64,
//	    companies        Int32,
//	    articles_fetched Int32,
//	    articles_new     Int32,
//	    signals_created  Int32,
//	    errors           Int32
//	) ENGINE = MergeTree() ORDER BY started_at
type Sink struct {
	db    *sqlx.DB
	table string
}

// NewSink connects to ClickHouse and verifies the connection. Callers should
// skip construction when no DSN is configured.
func NewSink(cfg *config.ClickHouseConfig) (*Sink, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("clickhouse DSN is required")
	}

	db, err := sqlx.Connect("clickhouse", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	logger.Info("ClickHouse metrics sink initialized",
		zap.String("table", cfg.Table),
	)

	return &Sink{db: db, table: cfg.Table}, nil
}

// InsertRun records one completed pipeline run.
func (s *Sink) InsertRun(ctx context.Context, startedAt time.Time, duration time.Duration, stats models.RunStats) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (started_at, duration_ms, companies, articles_fetched, articles_new, signals_created, errors) VALUES (?, ?, ?, ?, ?, ?, ?)",
		s.table,
	)

	if _, err := s.db.ExecContext(ctx, query,
		startedAt,
		duration.Milliseconds(),
		int32(stats.Companies),
		int32(stats.ArticlesFetched),
		int32(stats.ArticlesNew),
		int32(stats.SignalsCreated),
		int32(stats.Errors),
	); err != nil {
		return fmt.Errorf("ClickHouse insert failed: %w", err)
	}

	logger.Debug("pipeline run recorded",
		zap.String("table", s.table),
		zap.Int("signals_created", stats.SignalsCreated),
	)

	return nil
}

// Close closes the ClickHouse connection.
func (s *Sink) Close() error {
	return s.db.Close()
}
