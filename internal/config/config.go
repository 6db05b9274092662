package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName              string         `mapstructure:"app_name"`
	Env                  string         `mapstructure:"app_env"`
	LogLevel             string         `mapstructure:"log_level"`
	SitesFile            string         `mapstructure:"sites_file"`
	PublishersFile       string         `mapstructure:"publishers_file"`
	CrawlIntervalSeconds int64          `mapstructure:"crawl_interval"`
	CrawlInterval        time.Duration  `mapstructure:"-"`
	RunOnce              bool           `mapstructure:"run_once"`
	Timezone             string         `mapstructure:"timezone"`
	Location             *time.Location `mapstructure:"-"`

	Renderer             string        `mapstructure:"renderer"`
	RenderTimeoutSeconds int64         `mapstructure:"render_timeout_seconds"`
	RenderTimeout        time.Duration `mapstructure:"-"`
	ChromeExecPath       string        `mapstructure:"chrome_exec_path"`
	ChromeHeadless       bool          `mapstructure:"chrome_headless"`

	StorageType            string        `mapstructure:"storage_type"`
	BBoltPath              string        `mapstructure:"bbolt_path"`
	SQLitePath             string        `mapstructure:"sqlite_path"`
	RedisAddr              string        `mapstructure:"redis_addr"`
	RedisPassword          string        `mapstructure:"redis_password"`
	RedisDB                int           `mapstructure:"redis_db"`
	RunRetentionSeconds    int64         `mapstructure:"run_retention_seconds"`
	StorageCleanupSeconds  int64         `mapstructure:"storage_cleanup_interval_seconds"`
	RunRetention           time.Duration `mapstructure:"-"`
	StorageCleanupInterval time.Duration `mapstructure:"-"`

	Summarizer SummarizerConfig `mapstructure:",squash"`
}

// SummarizerConfig groups the settings of the external summarization backend.
type SummarizerConfig struct {
	APIKey         string        `mapstructure:"summarizer_api_key"`
	BaseURL        string        `mapstructure:"summarizer_base_url"`
	Model          string        `mapstructure:"summarizer_model"`
	TimeoutSeconds int64         `mapstructure:"summarizer_timeout_seconds"`
	CallDelayMs    int64         `mapstructure:"summarizer_call_delay_ms"`
	BackoffSeconds int64         `mapstructure:"summarizer_backoff_seconds"`
	MaxRetries     int           `mapstructure:"summarizer_max_retries"`
	ContentBudget  int           `mapstructure:"summarizer_content_budget"`
	MinWords       int           `mapstructure:"summarizer_min_words"`
	MaxWords       int           `mapstructure:"summarizer_max_words"`
	Timeout        time.Duration `mapstructure:"-"`
	CallDelay      time.Duration `mapstructure:"-"`
	Backoff        time.Duration `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return unmarshal(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "samvad-site-harvester")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("sites_file", "./configs/sites.yaml")
	v.SetDefault("publishers_file", "")
	v.SetDefault("crawl_interval", 3600) // seconds
	v.SetDefault("run_once", false)
	v.SetDefault("timezone", "UTC")

	v.SetDefault("renderer", "http")
	v.SetDefault("render_timeout_seconds", 30)
	v.SetDefault("chrome_exec_path", "")
	v.SetDefault("chrome_headless", true)

	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/articles.db")
	v.SetDefault("sqlite_path", "./data/articles.sqlite")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("run_retention_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.SetDefault("summarizer_api_key", "")
	v.SetDefault("summarizer_base_url", "https://api.openai.com/v1")
	v.SetDefault("summarizer_model", "gpt-4o-mini")
	v.SetDefault("summarizer_timeout_seconds", 60)
	v.SetDefault("summarizer_call_delay_ms", 2000)
	v.SetDefault("summarizer_backoff_seconds", 30)
	v.SetDefault("summarizer_max_retries", 3)
	v.SetDefault("summarizer_content_budget", 4000)
	v.SetDefault("summarizer_min_words", 100)
	v.SetDefault("summarizer_max_words", 200)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CrawlIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid crawl_interval (must be positive seconds)")
	}
	cfg.CrawlInterval = time.Duration(cfg.CrawlIntervalSeconds) * time.Second

	loc, err := time.LoadLocation(strings.TrimSpace(cfg.Timezone))
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	cfg.Renderer = strings.ToLower(strings.TrimSpace(cfg.Renderer))
	if cfg.RenderTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid render_timeout_seconds (must be positive seconds)")
	}
	cfg.RenderTimeout = time.Duration(cfg.RenderTimeoutSeconds) * time.Second

	if cfg.RunRetentionSeconds <= 0 {
		return nil, fmt.Errorf("invalid run_retention_seconds (must be positive seconds)")
	}
	if cfg.StorageCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.RunRetention = time.Duration(cfg.RunRetentionSeconds) * time.Second
	cfg.StorageCleanupInterval = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	s := &cfg.Summarizer
	if s.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid summarizer_timeout_seconds (must be positive seconds)")
	}
	if s.CallDelayMs < 0 || s.BackoffSeconds < 0 || s.MaxRetries < 0 {
		return nil, fmt.Errorf("summarizer delay, backoff and retries must not be negative")
	}
	if s.MinWords <= 0 || s.MaxWords < s.MinWords {
		return nil, fmt.Errorf("invalid summarizer word range %d-%d", s.MinWords, s.MaxWords)
	}
	s.Timeout = time.Duration(s.TimeoutSeconds) * time.Second
	s.CallDelay = time.Duration(s.CallDelayMs) * time.Millisecond
	s.Backoff = time.Duration(s.BackoffSeconds) * time.Second

	return &cfg, nil
}

// Redacted returns a copy safe to log, with credentials blanked.
func (c Config) Redacted() Config {
	if c.RedisPassword != "" {
		c.RedisPassword = "***"
	}
	if c.Summarizer.APIKey != "" {
		c.Summarizer.APIKey = "***"
	}
	return c
}
