package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/database"
)

// SQLCache is a DedupCache backed by a SQL database. Timestamps are unix seconds
// so the same queries run on SQLite and MySQL.
type SQLCache struct {
	db          *database.DB
	ttl         time.Duration
	senderTTL   time.Duration
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

func newSQLCache(db *database.DB, logger *zap.Logger, ttl, senderTTL, cleanupFreq time.Duration) *SQLCache {
	cache := &SQLCache{
		db:          db,
		ttl:         ttl,
		senderTTL:   senderTTL,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}

	if cleanupFreq > 0 {
		go cache.startCleanupTask()
	}

	return cache
}

// SeenExternalID reports whether the item is resident and not expired
func (c *SQLCache) SeenExternalID(ctx context.Context, ch core.Channel, externalID string) (bool, error) {
	var count int
	err := c.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM dedup_items
		WHERE channel = ? AND external_id = ? AND expires_at > ?
	`, string(ch), externalID, c.now().Unix())
	if err != nil {
		return false, fmt.Errorf("failed to query dedup cache: %w", err)
	}
	return count > 0, nil
}

// MarkSeen records the item as processed
func (c *SQLCache) MarkSeen(ctx context.Context, ch core.Channel, externalID string) error {
	now := c.now()
	_, err := c.db.ExecContext(ctx, `
		REPLACE INTO dedup_items (channel, external_id, notified, seen_at, expires_at)
		VALUES (?, ?, 0, ?, ?)
	`, string(ch), externalID, now.Unix(), now.Add(c.ttl).Unix())
	if err != nil {
		return fmt.Errorf("failed to insert dedup entry: %w", err)
	}
	return nil
}

// MarkNotified flags a resident item as notified
func (c *SQLCache) MarkNotified(ctx context.Context, ch core.Channel, externalID string) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE dedup_items SET notified = 1
		WHERE channel = ? AND external_id = ?
	`, string(ch), externalID)
	if err != nil {
		return fmt.Errorf("failed to mark dedup entry notified: %w", err)
	}
	return nil
}

// SeenSenderRecently reports whether the sender already triggered a notification
func (c *SQLCache) SeenSenderRecently(ctx context.Context, ch core.Channel, sender string) (bool, error) {
	var count int
	err := c.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM dedup_senders
		WHERE channel = ? AND sender = ? AND expires_at > ?
	`, string(ch), sender, c.now().Unix())
	if err != nil {
		return false, fmt.Errorf("failed to query sender cache: %w", err)
	}
	return count > 0, nil
}

// MarkSenderNotified records a notification for the sender
func (c *SQLCache) MarkSenderNotified(ctx context.Context, ch core.Channel, sender string) error {
	now := c.now()
	_, err := c.db.ExecContext(ctx, `
		REPLACE INTO dedup_senders (channel, sender, notified_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, string(ch), sender, now.Unix(), now.Add(c.senderTTL).Unix())
	if err != nil {
		return fmt.Errorf("failed to insert sender entry: %w", err)
	}
	return nil
}

// Entry returns the resident entry for an item
func (c *SQLCache) Entry(ctx context.Context, ch core.Channel, externalID string) (core.DedupEntry, bool, error) {
	var rows []struct {
		Notified  bool  `db:"notified"`
		SeenAt    int64 `db:"seen_at"`
		ExpiresAt int64 `db:"expires_at"`
	}
	err := c.db.SelectContext(ctx, &rows, `
		SELECT notified, seen_at, expires_at FROM dedup_items
		WHERE channel = ? AND external_id = ?
	`, string(ch), externalID)
	if err != nil {
		return core.DedupEntry{}, false, fmt.Errorf("failed to query dedup entry: %w", err)
	}
	if len(rows) == 0 {
		return core.DedupEntry{}, false, nil
	}
	return core.DedupEntry{
		Channel:    ch,
		ExternalID: externalID,
		Notified:   rows[0].Notified,
		SeenAt:     time.Unix(rows[0].SeenAt, 0),
		ExpiresAt:  time.Unix(rows[0].ExpiresAt, 0),
	}, true, nil
}

// Cleanup removes expired entries
func (c *SQLCache) Cleanup(ctx context.Context) error {
	now := c.now().Unix()
	var total int64

	for _, table := range []string{"dedup_items", "dedup_senders"} {
		result, err := c.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE expires_at <= ?", now)
		if err != nil {
			return fmt.Errorf("failed to clean up expired entries: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
			continue
		}
		total += rowsAffected
	}

	c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", total))
	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *SQLCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (c *SQLCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close cache database", zap.Error(err))
		}
	})
}
