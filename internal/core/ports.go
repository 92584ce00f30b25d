package core

import (
	"context"
)

// Classifier defines the interface for remote scam/ham classifiers
type Classifier interface {
	// Classify sends the request to the classifier and returns its verdict
	Classify(ctx context.Context, req *ClassificationRequest) (*ClassificationResult, error)
}

// RecordStore persists detected scam records
type RecordStore interface {
	Insert(ctx context.Context, record *ScamRecord) error
	ListByUser(ctx context.Context, userID string) ([]ScamRecord, error)
	DeleteByID(ctx context.Context, id string) error
}

// FlagStore is a durable key/value store for boolean flags
type FlagStore interface {
	SetFlag(ctx context.Context, key string, value bool) error
	Flag(ctx context.Context, key string) (bool, error)
}

// DedupCache tracks which items and senders were already handled
type DedupCache interface {
	// SeenExternalID reports whether the item is resident in the cache
	SeenExternalID(ctx context.Context, ch Channel, externalID string) (bool, error)

	// MarkSeen records the item as processed
	MarkSeen(ctx context.Context, ch Channel, externalID string) error

	// MarkNotified flags a resident item as having raised a notification
	MarkNotified(ctx context.Context, ch Channel, externalID string) error

	// SeenSenderRecently reports whether the sender already triggered a notification
	SeenSenderRecently(ctx context.Context, ch Channel, sender string) (bool, error)

	// MarkSenderNotified records that the sender triggered a notification
	MarkSenderNotified(ctx context.Context, ch Channel, sender string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// Notifier delivers local alerts
type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}
