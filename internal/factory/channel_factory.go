package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/adapters/channel"
	"github.com/mikey/scam-monitor/internal/config"
	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/gateway"
	"github.com/mikey/scam-monitor/internal/ports"
	"github.com/mikey/scam-monitor/internal/utils"
)

// ChannelFactory creates the pollers and the device gateway feeding them
type ChannelFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	inbox         *gateway.Inbox
	calls         *gateway.CallFeed
	gate          ports.PermissionGate
}

// NewChannelFactory creates a new channel factory
func NewChannelFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ChannelFactory {
	granted := make(map[core.Channel]bool, len(core.AllChannels))
	for _, ch := range core.AllChannels {
		granted[ch] = cfg.GetBool("channels." + string(ch) + ".permissions_granted")
	}
	return &ChannelFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
		inbox:         gateway.NewInbox(),
		calls:         gateway.NewCallFeed(),
		gate:          channel.NewConfigGate(granted),
	}
}

// CreateGateway creates the webhook server writing to the factory's feeds.
// It returns nil when the gateway is disabled.
func (f *ChannelFactory) CreateGateway() *gateway.Server {
	gwCfg := f.cfg.GetGateway()
	if !gwCfg.Enabled {
		return nil
	}
	return gateway.NewServer(gwCfg.ListenAddress, gwCfg.Token, f.inbox, f.calls, f.logger)
}

// CreatePoller creates the poller of one channel
func (f *ChannelFactory) CreatePoller(ch core.Channel) (ports.ChannelPoller, error) {
	logger := f.logger.With(zap.String("channel", string(ch)))

	switch ch {
	case core.ChannelSMS:
		return channel.NewSMSPoller(f.inbox, f.gate, logger), nil
	case core.ChannelCall:
		return channel.NewCallPoller(f.calls, f.gate, logger), nil
	case core.ChannelEmail:
		return channel.NewEmailPoller(f.cfg.GetIMAP(), channel.DialTLS, f.gate, f.textProcessor, logger), nil
	default:
		return nil, fmt.Errorf("no poller for channel %s", ch)
	}
}
