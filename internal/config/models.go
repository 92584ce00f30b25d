package config

import (
	"fmt"
	"time"

	"github.com/mikey/scam-monitor/internal/core"
)

// ClassifierConfig represents the configuration of the classification client
type ClassifierConfig struct {
	Provider      string
	Endpoint      string
	Timeout       time.Duration
	MaxBodySize   int
	RetryAttempts uint
	RetryDelay    time.Duration
	RetryMaxDelay time.Duration
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// ChannelConfig represents the configuration of one monitored channel
type ChannelConfig struct {
	Channel            core.Channel
	Enabled            bool
	PollInterval       time.Duration
	PermissionsGranted bool
	SenderDedup        bool
	TrustedSenders     []string
}

// IMAPConfig represents the mailbox used by the email channel
type IMAPConfig struct {
	Server      string
	Username    string
	Password    string
	Mailbox     string
	DialTimeout time.Duration
}

// GatewayConfig represents the device gateway webhook
type GatewayConfig struct {
	Enabled       bool
	ListenAddress string
	Token         string
}

// SMTPConfig represents the SMTP notifier
type SMTPConfig struct {
	Address string
	From    string
	To      []string
}

// TelegramConfig represents the Telegram notifier
type TelegramConfig struct {
	Token  string
	ChatID int64
}

// SupervisorConfig represents the task supervisor settings
type SupervisorConfig struct {
	DegradedAfter int
	StopTimeout   time.Duration
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() (ClassifierConfig, error) {
	timeout, err := c.GetDuration("classifier.timeout")
	if err != nil {
		return ClassifierConfig{}, fmt.Errorf("invalid classifier timeout: %w", err)
	}
	delay, err := c.GetDuration("classifier.retry.delay")
	if err != nil {
		return ClassifierConfig{}, fmt.Errorf("invalid classifier retry delay: %w", err)
	}
	maxDelay, err := c.GetDuration("classifier.retry.max_delay")
	if err != nil {
		return ClassifierConfig{}, fmt.Errorf("invalid classifier retry max delay: %w", err)
	}
	attempts := c.GetInt("classifier.retry.attempts")
	if attempts < 1 {
		attempts = 1
	}
	return ClassifierConfig{
		Provider:      c.GetString("classifier.provider"),
		Endpoint:      c.GetString("classifier.endpoint"),
		Timeout:       timeout,
		MaxBodySize:   c.GetInt("classifier.max_body_size"),
		RetryAttempts: uint(attempts),
		RetryDelay:    delay,
		RetryMaxDelay: maxDelay,
	}, nil
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetChannel returns the configuration of one channel
func (c *Config) GetChannel(ch core.Channel) (ChannelConfig, error) {
	prefix := "channels." + string(ch) + "."
	interval, err := c.GetDuration(prefix + "poll_interval")
	if err != nil {
		return ChannelConfig{}, fmt.Errorf("invalid poll interval for %s: %w", ch, err)
	}
	if interval <= 0 {
		return ChannelConfig{}, fmt.Errorf("poll interval for %s must be positive", ch)
	}
	return ChannelConfig{
		Channel:            ch,
		Enabled:            c.GetBool(prefix + "enabled"),
		PollInterval:       interval,
		PermissionsGranted: c.GetBool(prefix + "permissions_granted"),
		SenderDedup:        c.GetBool(prefix + "sender_dedup"),
		TrustedSenders:     c.GetStringSlice(prefix + "trusted_senders"),
	}, nil
}

// GetIMAP returns the IMAP configuration
func (c *Config) GetIMAP() IMAPConfig {
	dialTimeout, err := c.GetDuration("imap.dial_timeout")
	if err != nil {
		dialTimeout = 30 * time.Second
	}
	return IMAPConfig{
		Server:      c.GetString("imap.server"),
		Username:    c.GetString("imap.username"),
		Password:    c.GetString("imap.password"),
		Mailbox:     c.GetString("imap.mailbox"),
		DialTimeout: dialTimeout,
	}
}

// GetGateway returns the gateway configuration
func (c *Config) GetGateway() GatewayConfig {
	return GatewayConfig{
		Enabled:       c.GetBool("gateway.enabled"),
		ListenAddress: c.GetString("gateway.listen_address"),
		Token:         c.GetString("gateway.token"),
	}
}

// GetSMTP returns the SMTP notifier configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Address: c.GetString("notify.smtp.address"),
		From:    c.GetString("notify.smtp.from"),
		To:      c.GetStringSlice("notify.smtp.to"),
	}
}

// GetTelegram returns the Telegram notifier configuration
func (c *Config) GetTelegram() TelegramConfig {
	return TelegramConfig{
		Token:  c.GetString("notify.telegram.token"),
		ChatID: c.GetInt64("notify.telegram.chat_id"),
	}
}

// GetSupervisor returns the supervisor configuration
func (c *Config) GetSupervisor() (SupervisorConfig, error) {
	stopTimeout, err := c.GetDuration("supervisor.stop_timeout")
	if err != nil {
		return SupervisorConfig{}, fmt.Errorf("invalid supervisor stop timeout: %w", err)
	}
	return SupervisorConfig{
		DegradedAfter: c.GetInt("supervisor.degraded_after"),
		StopTimeout:   stopTimeout,
	}, nil
}

// GetDetection returns the detection pipeline configuration
func (c *Config) GetDetection() (core.DetectionConfig, error) {
	cls, err := c.GetClassifier()
	if err != nil {
		return core.DetectionConfig{}, err
	}
	senderDedup := make(map[core.Channel]bool, len(core.AllChannels))
	for _, ch := range core.AllChannels {
		senderDedup[ch] = c.GetBool("channels." + string(ch) + ".sender_dedup")
	}
	return core.DetectionConfig{
		OwnerUserID:     c.GetString("owner.user_id"),
		MinConfidence:   c.GetFloat64("detection.min_confidence"),
		ClassifyTimeout: cls.Timeout,
		Retry: core.RetryPolicy{
			Attempts: cls.RetryAttempts,
			Delay:    cls.RetryDelay,
			MaxDelay: cls.RetryMaxDelay,
		},
		SenderDedup: senderDedup,
	}, nil
}
