// Package config loads and validates the wisp server configuration.
//
// Precedence, lowest to highest: built-in defaults, optional YAML file
// (WISP_CONFIG), a .env file in the working directory, and WISP_* process
// environment variables.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment names accepted by Config.Env.
const (
	EnvDevelopment = "development"
	EnvTesting     = "testing"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config is the full server configuration.
type Config struct {
	Env       string          `yaml:"env" env:"WISP_ENV"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Auth      AuthConfig      `yaml:"auth"`
	Cache     CacheConfig     `yaml:"cache"`
	Paths     PathsConfig     `yaml:"paths"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// DeveloperExperiments exposes alpha-tier labs flags outside
	// development and testing environments.
	DeveloperExperiments bool `yaml:"developer_experiments" env:"WISP_DEVELOPER_EXPERIMENTS"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host" env:"WISP_SERVER_HOST"`
	Port            int           `yaml:"port" env:"WISP_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"WISP_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WISP_SERVER_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"WISP_SERVER_SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig selects the backing database.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" env:"WISP_DATABASE_DRIVER"`
	DSN             string        `yaml:"dsn" env:"WISP_DATABASE_DSN"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"WISP_DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"WISP_DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"WISP_DATABASE_CONN_MAX_LIFETIME"`
}

// LoggingConfig mirrors pkg/logger.LoggingConfig.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"WISP_LOG_LEVEL"`
	Format     string `yaml:"format" env:"WISP_LOG_FORMAT"`
	Output     string `yaml:"output" env:"WISP_LOG_OUTPUT"`
	FilePrefix string `yaml:"file_prefix" env:"WISP_LOG_FILE_PREFIX"`
}

// AuthConfig controls admin session tokens.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"WISP_AUTH_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"WISP_AUTH_TOKEN_TTL"`
}

// CacheConfig selects the settings invalidation transport. An empty Redis
// address keeps invalidation in-process.
type CacheConfig struct {
	RedisAddr     string `yaml:"redis_addr" env:"WISP_CACHE_REDIS_ADDR"`
	RedisPassword string `yaml:"redis_password" env:"WISP_CACHE_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"WISP_CACHE_REDIS_DB"`
}

// PathsConfig locates on-disk content (themes, data files).
type PathsConfig struct {
	ContentDir string `yaml:"content_dir" env:"WISP_CONTENT_DIR"`
}

// RateLimitConfig controls the per-client request limiter.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" env:"WISP_RATE_LIMIT_ENABLED"`
	RPS     float64 `yaml:"rps" env:"WISP_RATE_LIMIT_RPS"`
	Burst   int     `yaml:"burst" env:"WISP_RATE_LIMIT_BURST"`
}

// Default returns the built-in development configuration.
func Default() *Config {
	return &Config{
		Env: EnvDevelopment,
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            2368,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Paths: PathsConfig{
			ContentDir: "content",
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     50,
			Burst:   100,
		},
	}
}

// Load builds the configuration from defaults, the optional WISP_CONFIG
// YAML file, .env, and the process environment.
func Load() (*Config, error) {
	// Best effort: absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("WISP_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvTesting, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("unknown environment %q", c.Env)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database dsn is required for driver postgres")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if !c.IsDevelopmentOrTesting() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth jwt_secret is required in %s", c.Env)
	}
	return nil
}

// Address returns the host:port the server binds to.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// DatabaseDSN returns the configured DSN, defaulting sqlite to a file under
// the content directory.
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	if c.Database.Driver == "sqlite" {
		return filepath.Join(c.Paths.ContentDir, "data", "wisp.db")
	}
	return ""
}

// JWTSecret returns the signing secret, with a fixed fallback in
// development and testing so fresh checkouts boot without setup.
func (c *Config) JWTSecret() string {
	if c.Auth.JWTSecret != "" {
		return c.Auth.JWTSecret
	}
	return "wisp-dev-secret"
}

// IsDevelopment reports whether the environment is development.
func (c *Config) IsDevelopment() bool { return c.Env == EnvDevelopment }

// IsTesting reports whether the environment is testing.
func (c *Config) IsTesting() bool { return c.Env == EnvTesting }

// IsProduction reports whether the environment is production.
func (c *Config) IsProduction() bool { return c.Env == EnvProduction }

// IsDevelopmentOrTesting reports whether the environment is development or
// testing. Alpha-tier labs flags are visible in these environments.
func (c *Config) IsDevelopmentOrTesting() bool {
	return c.IsDevelopment() || c.IsTesting()
}
