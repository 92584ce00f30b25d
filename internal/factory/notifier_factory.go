package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/adapters/notify"
	"github.com/mikey/scam-monitor/internal/config"
	"github.com/mikey/scam-monitor/internal/core"
)

// NotifierFactory creates the notification backends
type NotifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier builds every backend listed in notify.backends. A single backend
// is returned as is, several are fanned out.
func (f *NotifierFactory) CreateNotifier() (core.Notifier, error) {
	names := f.cfg.GetStringSlice("notify.backends")
	if len(names) == 0 {
		names = []string{"log"}
	}

	backends := make([]notify.Named, 0, len(names))
	for _, name := range names {
		n, err := f.create(name)
		if err != nil {
			return nil, err
		}
		backends = append(backends, notify.Named{Name: name, Notifier: n})
	}

	f.logger.Info("Created notifiers", zap.Strings("backends", names))
	if len(backends) == 1 {
		return backends[0].Notifier, nil
	}
	return notify.NewMultiNotifier(backends...), nil
}

func (f *NotifierFactory) create(name string) (core.Notifier, error) {
	switch name {
	case "log":
		return notify.NewLogNotifier(f.logger), nil
	case "smtp":
		smtpCfg := f.cfg.GetSMTP()
		if len(smtpCfg.To) == 0 {
			return nil, fmt.Errorf("smtp notifier needs at least one recipient")
		}
		return notify.NewSMTPNotifier(smtpCfg.Address, smtpCfg.From, smtpCfg.To, f.logger), nil
	case "telegram":
		tgCfg := f.cfg.GetTelegram()
		if tgCfg.Token == "" || tgCfg.ChatID == 0 {
			return nil, fmt.Errorf("telegram notifier needs a token and a chat id")
		}
		return notify.NewTelegramNotifier(tgCfg.Token, tgCfg.ChatID, f.logger)
	default:
		return nil, fmt.Errorf("unsupported notifier backend: %s", name)
	}
}
