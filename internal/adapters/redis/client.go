package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	goredis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/salesintel/tracker/internal/adapters/config"
	"github.com/salesintel/tracker/pkg/logger"
)

// Client wraps a RedLock manager plus a plain Redis connection for health
// checks. Used only for the distributed run lock.
type Client struct {
	lockManager *redlock.RedLock
	conn        *goredis.Client
	lockTTL     time.Duration
}

// New creates a Redis-backed lock client.
func New(cfg *config.RedisConfig) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Single instance; a Redis cluster would list multiple addresses here.
	lockManager, err := redlock.NewRedLock(ctx, []string{"tcp://" + addr})
	if err != nil {
		return nil, fmt.Errorf("failed to create redlock manager: %w", err)
	}

	conn := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := conn.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("redis connection established", zap.String("addr", addr))

	return &Client{
		lockManager: lockManager,
		conn:        conn,
		lockTTL:     cfg.LockTTL,
	}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Health checks the Redis connection.
func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.conn.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// NewRunLock creates a distributed lock guarding the named job.
func (c *Client) NewRunLock(name string) *RunLock {
	return &RunLock{
		lockManager: c.lockManager,
		lockName:    fmt.Sprintf("run:lock:%s", name),
		ttl:         c.lockTTL,
	}
}
