package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type JWTConfig struct {
	KeyFile     string `mapstructure:"key_file"`
	AccessHours int    `mapstructure:"access_hours"`
}

type NonceConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes"`
}

type RateLimitConfig struct {
	Points        int `mapstructure:"points"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Env   string `mapstructure:"env"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Nonce     NonceConfig     `mapstructure:"nonce"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

// AccessTTL returns the configured access token lifetime.
func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.JWT.AccessHours) * time.Hour
}

// NonceTTL returns the configured nonce lifetime.
func (c *Config) NonceTTL() time.Duration {
	return time.Duration(c.Nonce.TTLMinutes) * time.Minute
}

// RateWindow returns the configured rate-limit window.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowSeconds) * time.Second
}

// Load reads configuration from the given file path (e.g. "config.yaml").
// A missing file is not an error; defaults and CHIRP_* environment
// overrides still apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetDefault("server.address", ":9000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.path", "data/auth.db")
	v.SetDefault("database.log_mode", false)
	v.SetDefault("redis.url", "")
	v.SetDefault("jwt.key_file", "")
	v.SetDefault("jwt.access_hours", 24)
	v.SetDefault("nonce.ttl_minutes", 5)
	v.SetDefault("rate_limit.points", 5)
	v.SetDefault("rate_limit.window_seconds", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.env", "dev")

	// environment overrides, e.g. CHIRP_SERVER_ADDRESS=:8080
	v.SetEnvPrefix("CHIRP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &c, nil
}
