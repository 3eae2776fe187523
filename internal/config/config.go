// Package config provides unified configuration loading for the health assistant.
// Supports YAML files, .env files, environment variables, and programmatic overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the assistant.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Cache         CacheConfig         `yaml:"cache"`
	Resolver      ResolverConfig      `yaml:"resolver"`
	Locator       LocatorConfig       `yaml:"locator"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
}

// DatabaseConfig holds conversation history storage settings.
type DatabaseConfig struct {
	Driver   string         `yaml:"driver"` // sqlite or postgres
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	JournalMode  string `yaml:"journal_mode"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// CacheConfig holds answer cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory, redis or none
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	RedisURL   string        `yaml:"redis_url"`
	Prefix     string        `yaml:"prefix"`
}

// ResolverConfig holds query resolution settings.
type ResolverConfig struct {
	HedgeThreshold     float64 `yaml:"hedge_threshold"`
	MinMatchConfidence float64 `yaml:"min_match_confidence"`
	// KnowledgeBasePath overrides the built-in knowledge base when set.
	KnowledgeBasePath string `yaml:"knowledge_base_path"`
}

// LocatorConfig holds pharmacy locator settings.
type LocatorConfig struct {
	Delay        time.Duration `yaml:"delay"`
	Timeout      time.Duration `yaml:"timeout"`
	DefaultLimit int           `yaml:"default_limit"`
	// DirectoryPath overrides the built-in pharmacy directory when set.
	DirectoryPath string `yaml:"directory_path"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides. A .env
// file next to the config file, or in the working directory, is loaded first; variables
// already set in the environment win over it.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		if kb := cfg.Resolver.KnowledgeBasePath; kb != "" {
			cfg.Resolver.KnowledgeBasePath = ResolveRelativePath(path, kb)
		}
		if dir := cfg.Locator.DirectoryPath; dir != "" {
			cfg.Locator.DirectoryPath = ResolveRelativePath(path, dir)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8085,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   60 * time.Second,
			GracefulShutdown: 10 * time.Second,
			AllowedOrigins:   []string{"*"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{
				Path:         "assistant.db",
				MaxOpenConns: 1,
				JournalMode:  "WAL",
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        15 * time.Minute,
			MaxEntries: 10000,
			Prefix:     "assistant:",
		},
		Resolver: ResolverConfig{
			HedgeThreshold:     0.65,
			MinMatchConfidence: 0.5,
		},
		Locator: LocatorConfig{
			Delay:        300 * time.Millisecond,
			Timeout:      2 * time.Second,
			DefaultLimit: 5,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "health-assistant",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return errors.New("sqlite path is required")
		}
	case "postgres":
		if c.Database.Postgres.DSN == "" {
			return errors.New("postgres dsn is required")
		}
	default:
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	switch c.Cache.Driver {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisURL == "" {
			return errors.New("redis url is required for the redis cache driver")
		}
	default:
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Resolver.HedgeThreshold < 0 || c.Resolver.HedgeThreshold > 1 {
		return fmt.Errorf("hedge_threshold must be in [0, 1], got %v", c.Resolver.HedgeThreshold)
	}
	if c.Resolver.MinMatchConfidence < 0 || c.Resolver.MinMatchConfidence > 1 {
		return fmt.Errorf("min_match_confidence must be in [0, 1], got %v", c.Resolver.MinMatchConfidence)
	}

	if c.Locator.Delay < 0 || c.Locator.Timeout <= 0 {
		return errors.New("locator delay must be >= 0 and timeout > 0")
	}

	if f := c.Observability.LogFormat; f != "json" && f != "console" {
		return fmt.Errorf("invalid log format: %s", f)
	}

	return nil
}

// DatabaseDSN returns the appropriate database connection string.
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLite.Path
	}
	return c.Database.Postgres.DSN
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func loadDotEnv(configPath string) error {
	candidates := []string{".env"}
	if configPath != "" {
		candidates = append([]string{filepath.Join(filepath.Dir(configPath), ".env")}, candidates...)
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		return nil
	}
	return nil
}

// envOverride maps one environment variable onto the config.
type envOverride struct {
	name  string
	apply func(cfg *Config, v string) error
}

func setDuration(dst *time.Duration) func(*Config, string) error {
	return func(_ *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

func envOverrides(cfg *Config) []envOverride {
	return []envOverride{
		{"SERVER_PORT", func(c *Config, v string) error {
			port, err := strconv.Atoi(v)
			c.Server.Port = port
			return err
		}},
		{"SERVER_HOST", func(c *Config, v string) error { c.Server.Host = v; return nil }},
		{"DATABASE_URL", func(c *Config, v string) error {
			// sqlite:<path> or a postgres:// / postgresql:// URL
			if path, ok := strings.CutPrefix(v, "sqlite:"); ok {
				c.Database.Driver = "sqlite"
				c.Database.SQLite.Path = path
				return nil
			}
			if strings.HasPrefix(v, "postgres") {
				c.Database.Driver = "postgres"
				c.Database.Postgres.DSN = v
				return nil
			}
			return fmt.Errorf("unsupported scheme in %q", v)
		}},
		{"REDIS_URL", func(c *Config, v string) error {
			c.Cache.Driver = "redis"
			c.Cache.RedisURL = v
			return nil
		}},
		{"KNOWLEDGE_BASE_PATH", func(c *Config, v string) error { c.Resolver.KnowledgeBasePath = v; return nil }},
		{"LOG_LEVEL", func(c *Config, v string) error { c.Observability.LogLevel = v; return nil }},
		{"LOG_FORMAT", func(c *Config, v string) error { c.Observability.LogFormat = v; return nil }},
		{"LOCATOR_DELAY", setDuration(&cfg.Locator.Delay)},
		{"LOCATOR_TIMEOUT", setDuration(&cfg.Locator.Timeout)},
	}
}

// applyEnvOverrides applies every set, non-empty override variable in table order.
func applyEnvOverrides(cfg *Config) error {
	for _, o := range envOverrides(cfg) {
		v, ok := os.LookupEnv(o.name)
		if !ok || v == "" {
			continue
		}
		if err := o.apply(cfg, v); err != nil {
			return fmt.Errorf("%s: %w", o.name, err)
		}
	}
	return nil
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}
