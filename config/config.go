package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the bridge.
// Tags use mapstructure for Viper unmarshalling.
type Config struct {
	// APIBaseURL is the backend REST API root, e.g. "https://api.example.com".
	APIBaseURL string `mapstructure:"API_BASE_URL"`

	// FirebaseAPIKey authenticates calls to the identity provider's REST
	// surface.
	FirebaseAPIKey string `mapstructure:"FIREBASE_API_KEY"`
	// UseEmulator redirects identity-provider calls to a local Auth
	// emulator at EmulatorHost.
	UseEmulator  bool   `mapstructure:"USE_EMULATOR"`
	EmulatorHost string `mapstructure:"EMULATOR_HOST"`

	// RedisAddr, when set, selects the Redis KV backend for session
	// persistence; empty selects the in-memory store.
	RedisAddr   string `mapstructure:"REDIS_ADDR"`
	RedisPrefix string `mapstructure:"REDIS_PREFIX"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	HTTPTimeoutSec    int `mapstructure:"HTTP_TIMEOUT_SEC"`
	DisplayInfoTTLMin int `mapstructure:"DISPLAY_INFO_TTL_MIN"`
}

// HTTPTimeout returns the transport timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// DisplayInfoTTL returns the display-info cache TTL as a duration.
func (c *Config) DisplayInfoTTL() time.Duration {
	return time.Duration(c.DisplayInfoTTLMin) * time.Minute
}

// EmulatorHostIfEnabled returns EmulatorHost when UseEmulator is set, else "".
func (c *Config) EmulatorHostIfEnabled() string {
	if c.UseEmulator {
		return c.EmulatorHost
	}
	return ""
}

// Load reads configuration from file, environment variables, and defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/authbridge/")
	v.AddConfigPath("$HOME/.authbridge")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("API_BASE_URL", "http://localhost:8080")
	v.SetDefault("FIREBASE_API_KEY", "")
	v.SetDefault("USE_EMULATOR", false)
	v.SetDefault("EMULATOR_HOST", "localhost:9099")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PREFIX", "authbridge")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("HTTP_TIMEOUT_SEC", 30)
	v.SetDefault("DISPLAY_INFO_TTL_MIN", 30)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return &cfg, nil
}
