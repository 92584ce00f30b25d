package di

import (
	"flag"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/config"
	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Classifier flags
	Provider    string
	Endpoint    string
	Timeout     time.Duration
	MaxBodySize int

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIModelName string

	// Detection flags
	MinConfidence float64

	// Input flags
	Channel   string
	Message   string
	Sender    string
	InputFile string

	// Record flags
	List     bool
	DeleteID string
	UserID   string

	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags(args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}
	fs := flag.NewFlagSet("scam-check", flag.ContinueOnError)

	// Classifier flags
	fs.StringVar(&flags.Provider, "provider", "http", "Classifier provider (http, openai, gemini, bedrock)")
	fs.StringVar(&flags.Endpoint, "endpoint", "http://localhost:5000/predict", "Prediction endpoint for the http provider")
	fs.DurationVar(&flags.Timeout, "timeout", 15*time.Second, "Classifier request timeout")
	fs.IntVar(&flags.MaxBodySize, "max-body-size", 4096, "Maximum content size sent to the classifier")

	// Bedrock flags
	fs.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	fs.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-3-haiku-20240307-v1:0", "Bedrock model ID")

	// Gemini flags
	fs.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	fs.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	fs.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	fs.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name")

	fs.Float64Var(&flags.MinConfidence, "min-confidence", 0.5, "Minimum confidence for a scam verdict")

	// Input flags
	fs.StringVar(&flags.Channel, "channel", "sms", "Channel of the item (sms, call, email)")
	fs.StringVar(&flags.Message, "message", "", "SMS text, or the caller number for calls")
	fs.StringVar(&flags.Sender, "sender", "", "Sender of the SMS or call")
	fs.StringVar(&flags.InputFile, "file", "", "Input file, an RFC 5322 message for email (stdin if not specified)")

	// Record flags
	fs.BoolVar(&flags.List, "list", false, "List stored scam records")
	fs.StringVar(&flags.DeleteID, "delete", "", "Delete the stored scam record with this id")
	fs.StringVar(&flags.UserID, "user", "local", "Owner of the records to list")

	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register detection service without cache, whitelist or notifier
	if err := container.Provide(func(
		classifier core.Classifier,
		logger *zap.Logger,
		cfg *config.Config,
	) (*core.DetectionService, error) {
		detCfg, err := cfg.GetDetection()
		if err != nil {
			return nil, err
		}
		return core.NewDetectionService(classifier, nil, nil, nil, nil, logger, detCfg), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("classifier.provider", flags.Provider)
	v.Set("classifier.endpoint", flags.Endpoint)
	v.Set("classifier.timeout", flags.Timeout.String())
	v.Set("classifier.max_body_size", flags.MaxBodySize)

	// Set provider-specific configuration
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.model_name", flags.OpenAIModelName)
	}

	v.Set("detection.min_confidence", flags.MinConfidence)
	v.Set("owner.user_id", flags.UserID)

	return config.NewFromViper(v)
}
