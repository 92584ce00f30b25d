package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/adapters/store"
	"github.com/mikey/scam-monitor/internal/config"
	"github.com/mikey/scam-monitor/internal/core"
)

// Store persists scam records and task flags
type Store interface {
	core.RecordStore
	core.FlagStore
	Close() error
}

// StoreFactory creates persistence stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore opens the store selected by store.type
func (f *StoreFactory) CreateStore(ctx context.Context) (Store, error) {
	storeType := f.cfg.GetString("store.type")
	f.logger.Info("Creating record store", zap.String("type", storeType))

	switch storeType {
	case "sqlite":
		return store.NewSQLiteStore(ctx, f.cfg.GetString("store.sqlite_path"), f.logger)
	case "mysql":
		return store.NewMySQLStore(ctx, f.cfg.GetString("store.mysql_dsn"), f.logger)
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
