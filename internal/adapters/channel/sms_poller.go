package channel

import (
	"context"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/gateway"
	"github.com/mikey/scam-monitor/internal/ports"
)

// MessageSource exposes the newest SMS in the device inbox
type MessageSource interface {
	Latest() (gateway.Message, bool)
}

// SMSPoller reads the newest SMS from the inbox
type SMSPoller struct {
	source     MessageSource
	permission core.PermissionState
	logger     *zap.Logger
}

// NewSMSPoller creates a poller, capturing the permission state once
func NewSMSPoller(source MessageSource, gate ports.PermissionGate, logger *zap.Logger) *SMSPoller {
	p := &SMSPoller{
		source:     source,
		permission: gate.Check(core.ChannelSMS),
		logger:     logger,
	}
	if p.permission == core.PermissionDenied {
		logger.Warn("SMS permission denied, poller will stay silent")
	}
	return p
}

// Channel returns core.ChannelSMS
func (p *SMSPoller) Channel() core.Channel { return core.ChannelSMS }

// Permissions returns the captured permission state
func (p *SMSPoller) Permissions() core.PermissionState { return p.permission }

// Poll returns the newest message in the inbox
func (p *SMSPoller) Poll(_ context.Context) (*core.CandidateEvent, error) {
	if p.permission != core.PermissionGranted {
		return nil, nil
	}

	msg, ok := p.source.Latest()
	if !ok {
		return nil, nil
	}

	return &core.CandidateEvent{
		Channel:    core.ChannelSMS,
		ExternalID: msg.ID,
		Sender:     msg.Sender,
		Content:    msg.Body,
		ObservedAt: msg.ReceivedAt,
	}, nil
}
