package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	Database   DatabaseConfig   `envconfig:"DATABASE"`
	ClickHouse ClickHouseConfig `envconfig:"CLICKHOUSE"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	Anthropic  AnthropicConfig  `envconfig:"ANTHROPIC"`
	Feed       FeedConfig       `envconfig:"FEED"`
	Pipeline   PipelineConfig   `envconfig:"PIPELINE"`
	Financials FinancialsConfig `envconfig:"FINANCIALS"`
	Urgency    UrgencyConfig    `envconfig:"URGENCY"`
	Telegram   TelegramConfig   `envconfig:"TELEGRAM"`
	Server     ServerConfig     `envconfig:"SERVER"`
	Logging    LoggingConfig    `envconfig:"LOGGING"`
}

// DatabaseConfig represents Postgres connection parameters. Missing
// credentials are fatal at startup, never retried.
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"tracker"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MigrationsPath string `envconfig:"DB_MIGRATIONS_PATH" default:"migrations"`
}

// ClickHouseConfig configures the optional pipeline-run metrics sink.
// Empty DSN disables it.
type ClickHouseConfig struct {
	DSN   string `envconfig:"CLICKHOUSE_DSN" default:""`
	Table string `envconfig:"CLICKHOUSE_TABLE" default:"pipeline_runs"`
}

// RedisConfig configures the optional distributed run lock. Empty host
// disables it and runs fall back to a process-local lock.
type RedisConfig struct {
	Host    string        `envconfig:"REDIS_HOST" default:""`
	Port    int           `envconfig:"REDIS_PORT" default:"6379"`
	LockTTL time.Duration `envconfig:"REDIS_LOCK_TTL" default:"10m"`
}

// AnthropicConfig configures the classification service.
type AnthropicConfig struct {
	APIKey    string `envconfig:"ANTHROPIC_API_KEY" required:"true"`
	Model     string `envconfig:"ANTHROPIC_MODEL" default:"claude-3-5-haiku-latest"`
	MaxTokens int    `envconfig:"ANTHROPIC_MAX_TOKENS" default:"1500"`
}

// FeedConfig configures the news source.
type FeedConfig struct {
	MaxArticlesPerCompany int           `envconfig:"FEED_MAX_ARTICLES_PER_COMPANY" default:"20"`
	Timeout               time.Duration `envconfig:"FEED_TIMEOUT" default:"30s"`
}

// PipelineConfig holds the orchestration tunables.
type PipelineConfig struct {
	Concurrency            int           `envconfig:"PIPELINE_CONCURRENCY" default:"5"`
	ClassifyBatchSize      int           `envconfig:"PIPELINE_CLASSIFY_BATCH_SIZE" default:"8"`
	MinPainForTalkingPoint float64       `envconfig:"PIPELINE_MIN_PAIN_FOR_TALKING_POINT" default:"0.5"`
	Interval               time.Duration `envconfig:"PIPELINE_INTERVAL" default:"0"` // 0 = on demand only
}

// FinancialsConfig holds the refresh tunables.
type FinancialsConfig struct {
	FreshnessWindow time.Duration `envconfig:"FINANCIALS_FRESHNESS_WINDOW" default:"24h"`
	Interval        time.Duration `envconfig:"FINANCIALS_INTERVAL" default:"0"` // 0 = on demand only
	Timeout         time.Duration `envconfig:"FINANCIALS_TIMEOUT" default:"15s"`
}

// UrgencyConfig holds the hot/warm thresholds and the earnings boost window.
// Hot requires both conditions; warm requires either one.
type UrgencyConfig struct {
	HotMinPain        float64       `envconfig:"URGENCY_HOT_MIN_PAIN" default:"0.7"`
	HotMaxAgeHours    float64       `envconfig:"URGENCY_HOT_MAX_AGE_HOURS" default:"48"`
	WarmMinPain       float64       `envconfig:"URGENCY_WARM_MIN_PAIN" default:"0.5"`
	WarmMaxAgeHours   float64       `envconfig:"URGENCY_WARM_MAX_AGE_HOURS" default:"168"`
	EarningsBoostDays int           `envconfig:"URGENCY_EARNINGS_BOOST_DAYS" default:"14"`
	SummaryWindow     time.Duration `envconfig:"URGENCY_SUMMARY_WINDOW" default:"168h"`
	MinRelevance      float64       `envconfig:"URGENCY_MIN_RELEVANCE" default:"0.5"`

	HiddenContactedDays int `envconfig:"URGENCY_HIDDEN_CONTACTED_DAYS" default:"7"`
	HiddenSnoozedDays   int `envconfig:"URGENCY_HIDDEN_SNOOZED_DAYS" default:"3"`
}

// TelegramConfig configures the optional hot-company alert bot. Empty token
// disables alerts.
type TelegramConfig struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN" default:""`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID" default:"0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port          string `envconfig:"SERVER_PORT" default:"8080"`
	TemplatesPath string `envconfig:"SERVER_TEMPLATES_PATH" default:"templates"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" default:""`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid.
func (c *Config) Validate() error {
	if c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("pipeline concurrency must be at least 1")
	}
	if c.Pipeline.ClassifyBatchSize < 1 {
		return fmt.Errorf("classify batch size must be at least 1")
	}
	if c.Feed.MaxArticlesPerCompany < 1 {
		return fmt.Errorf("max articles per company must be at least 1")
	}

	for name, score := range map[string]float64{
		"hot min pain":               c.Urgency.HotMinPain,
		"warm min pain":              c.Urgency.WarmMinPain,
		"min relevance":              c.Urgency.MinRelevance,
		"min pain for talking point": c.Pipeline.MinPainForTalkingPoint,
	} {
		if score < 0 || score > 1 {
			return fmt.Errorf("%s must be between 0 and 1", name)
		}
	}

	if c.Urgency.HotMaxAgeHours <= 0 || c.Urgency.WarmMaxAgeHours <= 0 {
		return fmt.Errorf("urgency age thresholds must be positive")
	}
	if c.Urgency.EarningsBoostDays < 0 {
		return fmt.Errorf("earnings boost days must not be negative")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram chat_id is required when bot token is set")
	}

	return nil
}

// GetDSN returns PostgreSQL connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
