package ports

import (
	"context"

	"github.com/mikey/scam-monitor/internal/core"
)

// ChannelPoller retrieves the newest item from one channel
type ChannelPoller interface {
	// Channel returns the channel this poller reads
	Channel() core.Channel

	// Permissions reports the permission state captured at construction
	Permissions() core.PermissionState

	// Poll returns the newest item, or nil when there is nothing to report.
	// A poller without permission returns nil, nil.
	Poll(ctx context.Context) (*core.CandidateEvent, error)
}

// Opener is implemented by pollers that hold a handle to their channel
type Opener interface {
	Open(ctx context.Context) error
	Close() error
}

// EventProcessor consumes candidate events produced by a poller
type EventProcessor interface {
	Process(ctx context.Context, ev *core.CandidateEvent) (*core.Outcome, error)
}
