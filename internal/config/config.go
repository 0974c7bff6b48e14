// Package config loads the application configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"toolcheck/pkg/classify"
	"toolcheck/pkg/report"
)

// Config holds the application configuration.
type Config struct {
	Scorer   ScorerConfig    `mapstructure:"scorer"`
	Classify classify.Config `mapstructure:"classify"`
	Buckets  report.Buckets  `mapstructure:"buckets"`
	Output   OutputConfig    `mapstructure:"output"`
	Server   ServerConfig    `mapstructure:"server"`
	Notify   NotifyConfig    `mapstructure:"notify"`
	LogMode  string          `mapstructure:"log_mode"`
}

// ScorerConfig selects and tunes the scoring backend.
type ScorerConfig struct {
	Backend     string `mapstructure:"backend"` // clipserver or ollama
	URL         string `mapstructure:"url"`
	Model       string `mapstructure:"model"`
	SendFormat  string `mapstructure:"send_format"`
	SendMaxDim  int    `mapstructure:"send_max_dim"`
	SendQuality int    `mapstructure:"send_quality"`
}

// OutputConfig controls report and overlay files.
type OutputConfig struct {
	ReportDir      string `mapstructure:"report_dir"`
	Overlay        bool   `mapstructure:"overlay"`
	OverlayFormat  string `mapstructure:"overlay_format"`
	OverlayQuality int    `mapstructure:"overlay_quality"`
}

// ServerConfig configures the optional HTTP check endpoint.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// NotifyConfig configures Telegram alerts for missing tools. The bot token
// comes from the TELEGRAM_TOKEN environment variable, never from the file.
type NotifyConfig struct {
	Enabled bool  `mapstructure:"enabled"`
	ChatID  int64 `mapstructure:"chat_id"`
}

// TelegramToken returns the bot token from the environment.
func (n NotifyConfig) TelegramToken() string {
	return os.Getenv("TELEGRAM_TOKEN")
}

// Load reads configuration from a YAML file, applying defaults for any
// missing key. A missing file yields the defaults. A .env file in the
// working directory is loaded first so secrets stay out of the YAML.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, missing := err.(viper.ConfigFileNotFoundError); !missing && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if url := os.Getenv("TOOLCHECK_SCORER_URL"); url != "" {
		cfg.Scorer.URL = url
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("scorer.backend", "clipserver")
	v.SetDefault("scorer.url", "")
	v.SetDefault("scorer.model", "ViT-B-32")
	v.SetDefault("scorer.send_format", "jpg")
	v.SetDefault("scorer.send_max_dim", 336)
	v.SetDefault("scorer.send_quality", 90)

	v.SetDefault("classify.confidence_threshold", 0.005)
	v.SetDefault("classify.absence_margin", 0.005)

	v.SetDefault("buckets.excellent", 90.0)
	v.SetDefault("buckets.good", 75.0)
	v.SetDefault("buckets.fair", 50.0)

	v.SetDefault("output.report_dir", "reports")
	v.SetDefault("output.overlay", false)
	v.SetDefault("output.overlay_format", "png")
	v.SetDefault("output.overlay_quality", 92)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)

	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.chat_id", 0)

	v.SetDefault("log_mode", "production")
}

// Validate checks the configuration before any scoring is attempted.
// Invalid configuration is fatal at startup.
func (c *Config) Validate() error {
	switch c.Scorer.Backend {
	case "clipserver", "ollama":
	default:
		return fmt.Errorf("scorer.backend must be clipserver or ollama, got %q", c.Scorer.Backend)
	}
	switch c.Scorer.SendFormat {
	case "jpg", "jpeg", "png":
	default:
		return fmt.Errorf("scorer.send_format must be jpg or png, got %q", c.Scorer.SendFormat)
	}
	if c.Scorer.SendQuality < 1 || c.Scorer.SendQuality > 100 {
		return fmt.Errorf("scorer.send_quality must be between 1 and 100")
	}
	if c.Scorer.SendMaxDim < 0 {
		return fmt.Errorf("scorer.send_max_dim must not be negative")
	}
	if err := c.Classify.Validate(); err != nil {
		return err
	}
	if err := c.Buckets.Validate(); err != nil {
		return err
	}
	if c.Notify.Enabled && c.Notify.ChatID == 0 {
		return fmt.Errorf("notify.chat_id is required when notifications are enabled")
	}
	return nil
}
