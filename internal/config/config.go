package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the radar pipeline.
type Config struct {
	General    GeneralConfig    `yaml:"general"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Feed       FeedConfig       `yaml:"feed"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Retention  RetentionConfig  `yaml:"retention"`
	Export     ExportConfig     `yaml:"export"`
}

type GeneralConfig struct {
	LogLevel  string `yaml:"log_level"`  // trace|debug|info|warn|error
	LogFormat string `yaml:"log_format"` // json|console
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type ClickHouseConfig struct {
	DSN string `yaml:"dsn"`
}

type FeedConfig struct {
	WSURL string `yaml:"ws_url"`
}

type ProvidersConfig struct {
	BirdeyeAPIKey      string   `yaml:"birdeye_api_key"`
	BirdeyeBaseURL     string   `yaml:"birdeye_base_url"`
	DexScreenerBaseURL string   `yaml:"dexscreener_base_url"`
	ExcludedDexIDs     []string `yaml:"excluded_dex_ids"`
}

type FetchConfig struct {
	CacheTTLSec   int `yaml:"cache_ttl_sec"`
	MaxConcurrent int `yaml:"max_concurrent"`
	MaxRetries    int `yaml:"max_retries"`
}

type RetentionConfig struct {
	Days int `yaml:"days"`
}

type ExportConfig struct {
	OutputPath string `yaml:"output_path"` // empty means stdout
}

// Load reads and parses a YAML configuration file. ${VAR} references in the
// file are expanded from the environment before parsing, and well-known
// environment variables override their file counterparts so secrets never
// need to live in the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv builds a config without a file, from environment variables and
// defaults only.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.ClickHouse.DSN = v
	}
	if v := os.Getenv("BIRDEYE_API_KEY"); v != "" {
		cfg.Providers.BirdeyeAPIKey = v
	}
	if v := os.Getenv("FEED_WS_URL"); v != "" {
		cfg.Feed.WSURL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.General.LogLevel == "" {
		cfg.General.LogLevel = "info"
	}
	if cfg.General.LogFormat == "" {
		cfg.General.LogFormat = "json"
	}
	if cfg.Feed.WSURL == "" {
		cfg.Feed.WSURL = "wss://pumpportal.fun/api/data"
	}
	if cfg.Fetch.CacheTTLSec == 0 {
		cfg.Fetch.CacheTTLSec = 30
	}
	if cfg.Fetch.MaxConcurrent == 0 {
		cfg.Fetch.MaxConcurrent = 8
	}
	if cfg.Fetch.MaxRetries == 0 {
		cfg.Fetch.MaxRetries = 2
	}
	if cfg.Retention.Days == 0 {
		cfg.Retention.Days = 14
	}
}

// Validate checks that required settings are present and sane. Database DSNs
// are not required here; a run mode that skips the SQL backends must stay
// usable without them. ValidateStorage covers the DSNs.
func (c *Config) Validate() error {
	if c.Fetch.MaxConcurrent < 1 {
		return fmt.Errorf("fetch.max_concurrent must be positive")
	}
	if c.Fetch.CacheTTLSec < 0 {
		return fmt.Errorf("fetch.cache_ttl_sec must not be negative")
	}
	if c.Retention.Days < 1 {
		return fmt.Errorf("retention.days must be positive")
	}
	return nil
}

// ValidateStorage checks the settings the PostgreSQL/ClickHouse backends
// need. Called when those backends are selected, not at load time.
func (c *Config) ValidateStorage() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	if c.ClickHouse.DSN == "" {
		return fmt.Errorf("clickhouse.dsn is required")
	}
	return nil
}
