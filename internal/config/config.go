package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/polychat/chat-backend/internal/types"
)

// Config holds all configuration for the chat-backend service.
type Config struct {
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	Server    ServerConfig
	Redis     RedisConfig
	Providers ProvidersConfig
	Session   SessionConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port string `envconfig:"SERVER_PORT" default:"8080"`
}

// RedisConfig holds the key-value store connection.
type RedisConfig struct {
	URI string `envconfig:"REDIS_URI" required:"true"`
}

// ProvidersConfig holds provider endpoints. Credentials are user state in
// the key-value store, not environment configuration.
type ProvidersConfig struct {
	ChatURL  string `envconfig:"TEXT_PROVIDER_URL"`
	ImageURL string `envconfig:"IMAGE_PROVIDER_URL"`
	// VoiceRelayURL left empty means this deployment has no voice transport
	// and voice requests fail with a permanent, localized explanation.
	VoiceRelayURL string        `envconfig:"VOICE_RELAY_URL"`
	Timeout       time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"60s"`
}

// SessionConfig holds chat session tuning.
type SessionConfig struct {
	// ReplyDelay is the fixed pause before resolving any reply, so the UI's
	// loading indicator is visible.
	ReplyDelay      time.Duration `envconfig:"REPLY_DELAY" default:"600ms"`
	MaxOutputTokens int           `envconfig:"MAX_OUTPUT_TOKENS" default:"1024"`
	DefaultLanguage string        `envconfig:"DEFAULT_LANGUAGE" default:"en"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration for logical errors beyond required fields.
func (c *Config) Validate() error {
	// envconfig's required tag does not fire for a variable set to "".
	if c.Redis.URI == "" {
		return fmt.Errorf("REDIS_URI must be set")
	}
	if lang := types.Language(c.Session.DefaultLanguage); !lang.Valid() {
		return fmt.Errorf("unsupported DEFAULT_LANGUAGE %q", c.Session.DefaultLanguage)
	}
	if c.Providers.Timeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	return nil
}
