package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/adapters/bedrock"
	"github.com/mikey/scam-monitor/internal/adapters/classifier"
	"github.com/mikey/scam-monitor/internal/adapters/gemini"
	"github.com/mikey/scam-monitor/internal/adapters/openai"
	"github.com/mikey/scam-monitor/internal/config"
	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/utils"
)

// ClassifierFactory creates classification clients
type ClassifierFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates the classifier selected by classifier.provider
func (f *ClassifierFactory) CreateClassifier(ctx context.Context) (core.Classifier, error) {
	clsCfg, err := f.cfg.GetClassifier()
	if err != nil {
		return nil, err
	}

	f.logger.Info("Creating classifier", zap.String("provider", clsCfg.Provider))

	switch clsCfg.Provider {
	case "http", "":
		if clsCfg.Endpoint == "" {
			return nil, fmt.Errorf("classifier endpoint is required")
		}
		return classifier.NewHTTPClient(clsCfg.Endpoint, clsCfg.Timeout, clsCfg.MaxBodySize, f.logger, f.textProcessor), nil
	case "openai":
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient(ctx)
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient(ctx)
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", clsCfg.Provider)
	}
}
