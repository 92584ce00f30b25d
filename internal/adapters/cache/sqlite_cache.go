package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/database"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS dedup_items (
		channel TEXT NOT NULL,
		external_id TEXT NOT NULL,
		notified INTEGER NOT NULL DEFAULT 0,
		seen_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		PRIMARY KEY (channel, external_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dedup_items_expires_at ON dedup_items(expires_at)`,
	`CREATE TABLE IF NOT EXISTS dedup_senders (
		channel TEXT NOT NULL,
		sender TEXT NOT NULL,
		notified_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		PRIMARY KEY (channel, sender)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dedup_senders_expires_at ON dedup_senders(expires_at)`,
}

// NewSQLiteCache creates a new SQLite dedup cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, ttl, senderTTL, cleanupFreq time.Duration) (*SQLCache, error) {
	db, err := database.NewSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Migrate(context.Background(), sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}

	return newSQLCache(db, logger, ttl, senderTTL, cleanupFreq), nil
}
