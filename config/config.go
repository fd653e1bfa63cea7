package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the agent.
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	Server     ServerConfig     `mapstructure:"server"`
	News       NewsConfig       `mapstructure:"news"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	Telex      TelexConfig      `mapstructure:"telex"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	AgentID   string `mapstructure:"agent_id"`
	PublicURL string `mapstructure:"public_url"`
}

// NewsConfig configures the external news provider.
type NewsConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	Endpoint   string        `mapstructure:"endpoint"`
	PageSize   int           `mapstructure:"page_size"`
	Language   string        `mapstructure:"language"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RatePerSec float64       `mapstructure:"rate_per_sec"`
}

// SummarizerConfig configures the summarization backend. Backend is
// "hf_inference" or "fallback"; the latter skips the remote provider
// entirely and uses the local extractive summary.
type SummarizerConfig struct {
	Backend           string        `mapstructure:"backend"`
	Model             string        `mapstructure:"model"`
	APIKey            string        `mapstructure:"api_key"`
	Endpoint          string        `mapstructure:"endpoint"`
	Timeout           time.Duration `mapstructure:"timeout"`
	PerArticleTimeout time.Duration `mapstructure:"per_article_timeout"`
	MaxInputChars     int           `mapstructure:"max_input_chars"`
	FallbackSentences int           `mapstructure:"fallback_sentences"`
	FallbackMaxChars  int           `mapstructure:"fallback_max_chars"`
}

// TelexConfig configures the outbound notification channel.
type TelexConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig configures the optional Redis search-result cache. An empty
// redis_addr disables caching.
type CacheConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func (n NewsConfig) Validate() error {
	if n.PageSize <= 0 {
		return fmt.Errorf("news.page_size must be > 0")
	}
	if n.RatePerSec <= 0 {
		return fmt.Errorf("news.rate_per_sec must be > 0")
	}
	return nil
}

func (s SummarizerConfig) Validate() error {
	switch s.Backend {
	case "hf_inference", "fallback":
	default:
		return fmt.Errorf("summarizer.backend must be hf_inference or fallback, got %q", s.Backend)
	}
	if s.MaxInputChars <= 0 {
		return fmt.Errorf("summarizer.max_input_chars must be > 0")
	}
	return nil
}

func (c CacheConfig) Validate() error {
	if c.RedisAddr != "" && c.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0 when cache.redis_addr is set")
	}
	return nil
}

// LoadConfig reads configuration from config.json (or the explicit path)
// with NORI_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")

	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.default_timeout", "30s")
	v.SetDefault("server.address", ":5001")
	v.SetDefault("server.agent_id", "nori-news-agent")
	v.SetDefault("news.endpoint", "https://newsapi.org/v2/everything")
	v.SetDefault("news.page_size", 5)
	v.SetDefault("news.language", "en")
	v.SetDefault("news.timeout", "20s")
	v.SetDefault("news.max_retries", 1)
	v.SetDefault("news.rate_per_sec", 2.0)
	v.SetDefault("summarizer.backend", "hf_inference")
	v.SetDefault("summarizer.model", "sshleifer/distilbart-cnn-12-6")
	v.SetDefault("summarizer.endpoint", "https://api-inference.huggingface.co/models/")
	v.SetDefault("summarizer.timeout", "60s")
	v.SetDefault("summarizer.per_article_timeout", "15s")
	v.SetDefault("summarizer.max_input_chars", 1024)
	v.SetDefault("summarizer.fallback_sentences", 2)
	v.SetDefault("summarizer.fallback_max_chars", 400)
	v.SetDefault("telex.base_url", "https://api.telex.im")
	v.SetDefault("telex.timeout", "20s")
	v.SetDefault("cache.ttl", "2m")
	v.SetDefault("telemetry.enabled", true)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)
		v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("NORI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; env and defaults are enough to run.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.News.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Summarizer.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Cache.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
