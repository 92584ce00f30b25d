package factory

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/adapters/cache"
	"github.com/mikey/scam-monitor/internal/config"
	"github.com/mikey/scam-monitor/internal/core"
)

// Cache is a dedup cache that owns background resources
type Cache interface {
	core.DedupCache
	Stop()
}

// CacheFactory creates dedup caches based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCache creates a dedup cache based on the configuration
func (f *CacheFactory) CreateCache() (Cache, error) {
	ttl, senderTTL, cleanupFreq, err := f.retention()
	if err != nil {
		return nil, err
	}

	cacheType := f.cfg.GetString("cache.type")
	f.logger.Info("Creating dedup cache",
		zap.String("type", cacheType),
		zap.Duration("ttl", ttl),
		zap.Duration("sender_ttl", senderTTL))

	switch cacheType {
	case "memory":
		return cache.NewMemoryCache(f.logger, ttl, senderTTL, cleanupFreq), nil
	case "sqlite":
		return cache.NewSQLiteCache(f.cfg.GetString("cache.sqlite_path"), f.logger, ttl, senderTTL, cleanupFreq)
	case "mysql":
		return cache.NewMySQLCache(f.cfg.GetString("cache.mysql_dsn"), f.logger, ttl, senderTTL, cleanupFreq)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}
}

func (f *CacheFactory) retention() (ttl, senderTTL, cleanupFreq time.Duration, err error) {
	if ttl, err = f.cfg.GetDuration("cache.ttl"); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid cache ttl: %w", err)
	}
	if senderTTL, err = f.cfg.GetDuration("cache.sender_ttl"); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid cache sender ttl: %w", err)
	}
	if cleanupFreq, err = f.cfg.GetDuration("cache.cleanup_frequency"); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid cache cleanup frequency: %w", err)
	}
	return ttl, senderTTL, cleanupFreq, nil
}
