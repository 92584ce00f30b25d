package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/database"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS dedup_items (
		channel VARCHAR(16) NOT NULL,
		external_id VARCHAR(255) NOT NULL,
		notified TINYINT(1) NOT NULL DEFAULT 0,
		seen_at BIGINT NOT NULL,
		expires_at BIGINT NOT NULL,
		PRIMARY KEY (channel, external_id),
		INDEX idx_dedup_items_expires_at (expires_at)
	)`,
	`CREATE TABLE IF NOT EXISTS dedup_senders (
		channel VARCHAR(16) NOT NULL,
		sender VARCHAR(255) NOT NULL,
		notified_at BIGINT NOT NULL,
		expires_at BIGINT NOT NULL,
		PRIMARY KEY (channel, sender),
		INDEX idx_dedup_senders_expires_at (expires_at)
	)`,
}

// NewMySQLCache creates a new MySQL dedup cache
func NewMySQLCache(dsn string, logger *zap.Logger, ttl, senderTTL, cleanupFreq time.Duration) (*SQLCache, error) {
	db, err := database.NewMySQL(dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(context.Background(), mysqlSchema); err != nil {
		db.Close()
		return nil, err
	}

	return newSQLCache(db, logger, ttl, senderTTL, cleanupFreq), nil
}
