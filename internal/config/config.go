package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type TokenConfig struct {
	Backend     string `mapstructure:"backend" yaml:"backend"` // file, sqlite, redis, memory
	FilePath    string `mapstructure:"file_path" yaml:"file_path"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	RedisAddr   string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisDB     int    `mapstructure:"redis_db" yaml:"redis_db"`
	RedisPrefix string `mapstructure:"redis_prefix" yaml:"redis_prefix"`
	Initial     string `mapstructure:"initial" yaml:"initial"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // console, json
	File   string `mapstructure:"file" yaml:"file"`
}

type NotifyConfig struct {
	WebhookURL  string `mapstructure:"webhook_url" yaml:"webhook_url"`
	WebhookType string `mapstructure:"webhook_type" yaml:"webhook_type"` // webhook, discord
}

type Config struct {
	APIBaseURL        string        `mapstructure:"api_base_url" yaml:"api_base_url"`
	PollInterval      time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	ChecksLimit       int           `mapstructure:"checks_limit" yaml:"checks_limit"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	HTTPAddr          string        `mapstructure:"http_addr" yaml:"http_addr"`
	AllowedCORSOrigin string        `mapstructure:"allowed_cors_origin" yaml:"allowed_cors_origin"`
	Token             TokenConfig   `mapstructure:"token" yaml:"token"`
	Log               LogConfig     `mapstructure:"log" yaml:"log"`
	Notify            NotifyConfig  `mapstructure:"notify" yaml:"notify"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("SENTINEL_DASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyFallbacks(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// AutomaticEnv only resolves keys viper already knows about, so every key
// gets a default here.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api_base_url", "http://localhost:8088")
	v.SetDefault("poll_interval", 3*time.Second)
	v.SetDefault("checks_limit", 50)
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("http_addr", ":8090")
	v.SetDefault("allowed_cors_origin", "")

	v.SetDefault("token.backend", "file")
	v.SetDefault("token.file_path", "data/token.json")
	v.SetDefault("token.sqlite_path", "data/token.db")
	v.SetDefault("token.redis_addr", "localhost:6379")
	v.SetDefault("token.redis_db", 0)
	v.SetDefault("token.redis_prefix", "sentinel-dash")
	v.SetDefault("token.initial", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")

	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.webhook_type", "webhook")
}

func applyFallbacks(cfg *Config) {
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.ChecksLimit <= 0 {
		cfg.ChecksLimit = 50
	}
	if cfg.Token.Backend == "" {
		cfg.Token.Backend = "file"
	}
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("api_base_url %q must be an absolute http(s) url", c.APIBaseURL)
	}
	if c.ChecksLimit > 100 {
		return errors.New("checks_limit must not exceed 100")
	}
	if c.RequestTimeout < 0 {
		return errors.New("request_timeout must not be negative")
	}
	switch c.Token.Backend {
	case "file", "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("unknown token backend %q", c.Token.Backend)
	}
	return nil
}
