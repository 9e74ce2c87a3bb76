package cache

import (
	"time"

	financeapp "github.com/buildledger/backend/internal/application/finance"
	"github.com/buildledger/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ReportCacheFactory creates report caches based on configuration
type ReportCacheFactory struct {
	redisConfig   config.RedisConfig
	ttl           time.Duration
	logger        *zap.Logger
	allowInMemory bool
}

// ReportCacheFactoryOption is a functional option for configuring the factory
type ReportCacheFactoryOption func(*ReportCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) ReportCacheFactoryOption {
	return func(f *ReportCacheFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) ReportCacheFactoryOption {
	return func(f *ReportCacheFactory) {
		f.allowInMemory = allow
	}
}

// NewReportCacheFactory creates a new factory
func NewReportCacheFactory(cfg config.RedisConfig, ttl time.Duration, opts ...ReportCacheFactoryOption) *ReportCacheFactory {
	f := &ReportCacheFactory{
		redisConfig:   cfg,
		ttl:           ttl,
		logger:        zap.NewNop(),
		allowInMemory: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateCache creates a report cache, preferring Redis. When Redis is
// unreachable and fallback is allowed, a process-local cache is returned;
// reported totals may then be up to one TTL stale across instances.
func (f *ReportCacheFactory) CreateCache() (financeapp.ReportCache, error) {
	cache, err := NewRedisReportCache(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.ttl)
	if err == nil {
		f.logger.Info("Using Redis report cache",
			zap.String("host", f.redisConfig.Host),
			zap.Int("port", f.redisConfig.Port))
		return cache, nil
	}

	if !f.allowInMemory {
		return nil, err
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory report cache",
		zap.Error(err))
	return NewInMemoryReportCache(f.ttl), nil
}
