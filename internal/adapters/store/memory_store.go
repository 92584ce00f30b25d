package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mikey/scam-monitor/internal/core"
)

// MemoryStore keeps records and flags in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	records map[core.Channel][]core.ScamRecord
	flags   map[string]bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[core.Channel][]core.ScamRecord),
		flags:   make(map[string]bool),
	}
}

// Insert appends a record to its channel's collection
func (s *MemoryStore) Insert(_ context.Context, record *core.ScamRecord) error {
	if _, err := TableFor(record.Channel); err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Channel] = append(s.records[record.Channel], *record)
	return nil
}

// ListByUser returns every record owned by the user, newest first
func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]core.ScamRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.ScamRecord
	for _, ch := range core.AllChannels {
		for _, r := range s.records[ch] {
			if r.OwnerUserID == userID {
				out = append(out, r)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	return out, nil
}

// DeleteByID removes a record by id
func (s *MemoryStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch, list := range s.records {
		for i, r := range list {
			if r.ID == id {
				s.records[ch] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("record %s: %w", id, core.ErrNotFound)
}

// SetFlag stores a boolean setting
func (s *MemoryStore) SetFlag(_ context.Context, key string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[key] = value
	return nil
}

// Flag reads a boolean setting, false when absent
func (s *MemoryStore) Flag(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[key], nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
