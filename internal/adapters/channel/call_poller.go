package channel

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/gateway"
	"github.com/mikey/scam-monitor/internal/ports"
)

// CallSource delivers incoming calls to a registered handler
type CallSource interface {
	OnCall(fn func(gateway.Message)) func()
}

// CallPoller is event driven: the feed callback stores the newest call and
// Poll drains it
type CallPoller struct {
	source      CallSource
	mu          sync.Mutex
	pending     *gateway.Message
	permission  core.PermissionState
	unsubscribe func()
	logger      *zap.Logger
}

// NewCallPoller creates a poller, capturing the permission state once
func NewCallPoller(source CallSource, gate ports.PermissionGate, logger *zap.Logger) *CallPoller {
	p := &CallPoller{
		source:     source,
		permission: gate.Check(core.ChannelCall),
		logger:     logger,
	}
	if p.permission != core.PermissionGranted {
		logger.Warn("Call permission denied, poller will stay silent")
	}
	return p
}

// Open registers the poller with the call feed when permitted
func (p *CallPoller) Open(_ context.Context) error {
	if p.permission != core.PermissionGranted {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unsubscribe == nil {
		p.unsubscribe = p.source.OnCall(p.onCall)
	}
	return nil
}

func (p *CallPoller) onCall(m gateway.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending != nil && m.ReceivedAt.Before(p.pending.ReceivedAt) {
		return
	}
	p.pending = &m
}

// Channel returns core.ChannelCall
func (p *CallPoller) Channel() core.Channel { return core.ChannelCall }

// Permissions returns the captured permission state
func (p *CallPoller) Permissions() core.PermissionState { return p.permission }

// Poll drains the newest pending call. The caller number is the content.
func (p *CallPoller) Poll(_ context.Context) (*core.CandidateEvent, error) {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.mu.Unlock()

	if pending == nil {
		return nil, nil
	}

	return &core.CandidateEvent{
		Channel:    core.ChannelCall,
		ExternalID: pending.ID,
		Sender:     pending.Sender,
		Content:    pending.Sender,
		ObservedAt: pending.ReceivedAt,
	}, nil
}

// Close detaches the poller from the call feed and drops a pending call
func (p *CallPoller) Close() error {
	p.mu.Lock()
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.pending = nil
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	return nil
}
