package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
)

type entryKey struct {
	channel core.Channel
	value   string
}

// MemoryCache is an in-memory implementation of the DedupCache interface
type MemoryCache struct {
	items       map[entryKey]*core.DedupEntry
	senders     map[entryKey]time.Time
	mu          sync.RWMutex
	ttl         time.Duration
	senderTTL   time.Duration
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache(logger *zap.Logger, ttl, senderTTL, cleanupFreq time.Duration) *MemoryCache {
	cache := &MemoryCache{
		items:       make(map[entryKey]*core.DedupEntry),
		senders:     make(map[entryKey]time.Time),
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
func (c *MemoryCache) SeenExternalID(_ context.Context, ch core.Channel, externalID string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.items[entryKey{ch, externalID}]
	if !ok {
		return false, nil
	}
	return c.now().Before(entry.ExpiresAt), nil
}

// MarkSeen records the item as processed
func (c *MemoryCache) MarkSeen(_ context.Context, ch core.Channel, externalID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.items[entryKey{ch, externalID}] = &core.DedupEntry{
		Channel:    ch,
		ExternalID: externalID,
		SeenAt:     now,
		ExpiresAt:  now.Add(c.ttl),
	}
	return nil
}

// MarkNotified flags a resident item as notified
func (c *MemoryCache) MarkNotified(_ context.Context, ch core.Channel, externalID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.items[entryKey{ch, externalID}]; ok {
		entry.Notified = true
	}
	return nil
}

// SeenSenderRecently reports whether the sender already triggered a notification
func (c *MemoryCache) SeenSenderRecently(_ context.Context, ch core.Channel, sender string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expiresAt, ok := c.senders[entryKey{ch, sender}]
	return ok && c.now().Before(expiresAt), nil
}

// MarkSenderNotified records a notification for the sender
func (c *MemoryCache) MarkSenderNotified(_ context.Context, ch core.Channel, sender string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.senders[entryKey{ch, sender}] = c.now().Add(c.senderTTL)
	return nil
}

// Entry returns a copy of the resident entry for an item
func (c *MemoryCache) Entry(ch core.Channel, externalID string) (core.DedupEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.items[entryKey{ch, externalID}]
	if !ok {
		return core.DedupEntry{}, false
	}
	return *entry, true
}

// Cleanup removes expired entries
func (c *MemoryCache) Cleanup(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expiredCount := 0

	for key, entry := range c.items {
		if !now.Before(entry.ExpiresAt) {
			delete(c.items, key)
			expiredCount++
		}
	}
	for key, expiresAt := range c.senders {
		if !now.Before(expiresAt) {
			delete(c.senders, key)
			expiredCount++
		}
	}

	c.logger.Debug("Cleaned up expired cache entries", zap.Int("expired_count", expiredCount))
	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *MemoryCache) startCleanupTask() {
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

// Stop stops the background cleanup task
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
