package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/scam-monitor/")
	v.AddConfigPath("$HOME/.scam-monitor")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("SCAM_MONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromFile creates a configuration instance from an explicit file
func NewFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvPrefix("SCAM_MONITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("owner.user_id", "local")

	// Classifier defaults
	v.SetDefault("classifier.provider", "http")
	v.SetDefault("classifier.endpoint", "http://localhost:5000/predict")
	v.SetDefault("classifier.timeout", "15s")
	v.SetDefault("classifier.max_body_size", 4096)
	v.SetDefault("classifier.retry.attempts", 3)
	v.SetDefault("classifier.retry.delay", "1s")
	v.SetDefault("classifier.retry.max_delay", "30s")

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.1)
	v.SetDefault("bedrock.top_p", 0.9)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.9)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)

	// Detection defaults
	v.SetDefault("detection.min_confidence", 0.5)

	// Channel defaults
	v.SetDefault("channels.sms.enabled", true)
	v.SetDefault("channels.sms.poll_interval", "5s")
	v.SetDefault("channels.sms.permissions_granted", true)
	v.SetDefault("channels.sms.sender_dedup", false)
	v.SetDefault("channels.sms.trusted_senders", []string{})
	v.SetDefault("channels.call.enabled", true)
	v.SetDefault("channels.call.poll_interval", "2s")
	v.SetDefault("channels.call.permissions_granted", true)
	v.SetDefault("channels.call.sender_dedup", false)
	v.SetDefault("channels.call.trusted_senders", []string{})
	v.SetDefault("channels.email.enabled", false)
	v.SetDefault("channels.email.poll_interval", "30s")
	v.SetDefault("channels.email.permissions_granted", true)
	v.SetDefault("channels.email.sender_dedup", true)
	v.SetDefault("channels.email.trusted_senders", []string{})

	// IMAP defaults
	v.SetDefault("imap.server", "")
	v.SetDefault("imap.username", "")
	v.SetDefault("imap.password", "")
	v.SetDefault("imap.mailbox", "INBOX")
	v.SetDefault("imap.dial_timeout", "30s")

	// Gateway defaults
	v.SetDefault("gateway.enabled", true)
	v.SetDefault("gateway.listen_address", "127.0.0.1:8089")
	v.SetDefault("gateway.token", "")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "720h")
	v.SetDefault("cache.sender_ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "/data/scam_dedup.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/scam_monitor")

	// Store defaults
	v.SetDefault("store.type", "sqlite")
	v.SetDefault("store.sqlite_path", "/data/scam_records.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/scam_monitor?parseTime=true")

	// Notifier defaults
	v.SetDefault("notify.backends", []string{"log"})
	v.SetDefault("notify.smtp.address", "localhost:25")
	v.SetDefault("notify.smtp.from", "scam-monitor@localhost")
	v.SetDefault("notify.smtp.to", []string{})
	v.SetDefault("notify.telegram.token", "")
	v.SetDefault("notify.telegram.chat_id", 0)

	// Supervisor defaults
	v.SetDefault("supervisor.degraded_after", 3)
	v.SetDefault("supervisor.stop_timeout", "30s")

	// Lifecycle defaults
	v.SetDefault("lifecycle.confirm_exit", "prompt")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 gets an int64 value from the configuration
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
