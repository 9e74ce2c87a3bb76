// Package cache provides report caching backed by Redis, with an in-memory
// variant for single-instance deployments and tests.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	financeapp "github.com/buildledger/backend/internal/application/finance"
	"github.com/redis/go-redis/v9"
)

// RedisReportCache implements ReportCache using Redis. Spend summaries are
// stored as JSON under a common prefix so invalidation can clear them all
// with one scan.
type RedisReportCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisReportCache creates a new Redis-backed report cache
func NewRedisReportCache(cfg RedisConfig, ttl time.Duration) (*RedisReportCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisReportCacheWithClient(client, "", ttl), nil
}

// NewRedisReportCacheWithClient creates a cache with an existing Redis client.
// This is useful for testing or when sharing a client across components.
func NewRedisReportCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisReportCache {
	if keyPrefix == "" {
		keyPrefix = "report:summary:"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisReportCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// GetSummary returns a cached spend summary, or nil on a cache miss
func (c *RedisReportCache) GetSummary(ctx context.Context, key string) (*financeapp.SpendSummary, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached summary: %w", err)
	}

	var summary financeapp.SpendSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten
		return nil, nil
	}
	return &summary, nil
}

// SetSummary caches a spend summary with the configured TTL
func (c *RedisReportCache) SetSummary(ctx context.Context, key string, summary *financeapp.SpendSummary) error {
	if summary == nil {
		return errors.New("summary is required")
	}

	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	if err := c.client.Set(ctx, c.keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache summary: %w", err)
	}
	return nil
}

// Invalidate removes every cached summary. Called after any write that
// changes reported totals.
func (c *RedisReportCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached summaries: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached summaries: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisReportCache) Close() error {
	return c.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisReportCache) GetClient() *redis.Client {
	return c.client
}

// Ensure RedisReportCache implements ReportCache
var _ financeapp.ReportCache = (*RedisReportCache)(nil)
