package di

import (
	"context"
	"os"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/config"
	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/factory"
	"github.com/mikey/scam-monitor/internal/lifecycle"
	"github.com/mikey/scam-monitor/internal/logging"
	"github.com/mikey/scam-monitor/internal/supervisor"
	"github.com/mikey/scam-monitor/internal/utils"
	"github.com/mikey/scam-monitor/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register factories only the daemon needs
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewNotifierFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewChannelFactory); err != nil {
		return nil, err
	}

	// Register dedup cache
	if err := container.Provide(func(f *factory.CacheFactory) (factory.Cache, error) {
		return f.CreateCache()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(c factory.Cache) core.DedupCache { return c }); err != nil {
		return nil, err
	}

	// Register notifier
	if err := container.Provide(func(f *factory.NotifierFactory) (core.Notifier, error) {
		return f.CreateNotifier()
	}); err != nil {
		return nil, err
	}

	// Register per-channel whitelist
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.TrustChecker {
		trusted := make(map[core.Channel][]string, len(core.AllChannels))
		for _, ch := range core.AllChannels {
			trusted[ch] = cfg.GetStringSlice("channels." + string(ch) + ".trusted_senders")
		}
		return whitelist.NewChecker(trusted, logger)
	}); err != nil {
		return nil, err
	}

	// Register detection service
	if err := container.Provide(cfgDetection); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewDetectionService); err != nil {
		return nil, err
	}

	// Register supervisor
	if err := container.Provide(func(
		svc *core.DetectionService,
		flags core.FlagStore,
		cfg *config.Config,
		logger *zap.Logger,
	) (*supervisor.Supervisor, error) {
		supCfg, err := cfg.GetSupervisor()
		if err != nil {
			return nil, err
		}
		cls, err := cfg.GetClassifier()
		if err != nil {
			return nil, err
		}
		// every attempt with its backoff, plus one more timeout for the store and notifier calls
		attempts := time.Duration(cls.RetryAttempts)
		processTimeout := cls.Timeout*(attempts+1) + cls.RetryMaxDelay*(attempts-1)
		return supervisor.New(svc, flags, supervisor.Config{
			DegradedAfter:  supCfg.DegradedAfter,
			ProcessTimeout: processTimeout,
		}, logger), nil
	}); err != nil {
		return nil, err
	}

	// Register lifecycle coordinator
	if err := container.Provide(func(cfg *config.Config) (lifecycle.Confirmer, error) {
		return lifecycle.NewConfirmer(cfg.GetString("lifecycle.confirm_exit"), os.Stdin, os.Stdout)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		sup *supervisor.Supervisor,
		confirmer lifecycle.Confirmer,
		logger *zap.Logger,
	) *lifecycle.Coordinator {
		return lifecycle.NewCoordinator(sup, confirmer, logger)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCommon registers what the daemon and the CLI share: text processing,
// the classifier and the record store
func provideCommon(container *dig.Container) error {
	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	if err := container.Provide(factory.NewClassifierFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.ClassifierFactory) (core.Classifier, error) {
		return f.CreateClassifier(context.Background())
	}); err != nil {
		return err
	}

	// Register store, opened lazily on first use
	if err := container.Provide(func(f *factory.StoreFactory) (factory.Store, error) {
		return f.CreateStore(context.Background())
	}); err != nil {
		return err
	}
	if err := container.Provide(func(s factory.Store) core.RecordStore { return s }); err != nil {
		return err
	}
	return container.Provide(func(s factory.Store) core.FlagStore { return s })
}

func cfgDetection(cfg *config.Config) (core.DetectionConfig, error) {
	return cfg.GetDetection()
}
