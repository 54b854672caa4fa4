// Package config loads server settings from an optional YAML file and the
// environment. Environment variables win over the file; defaults fill the rest.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Chat     ChatConfig     `yaml:"chat"`
	Redis    RedisConfig    `yaml:"redis"`
	Requests RequestsConfig `yaml:"requests"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig selects the store. Path is used by sqlite, URL by postgres.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// ChatConfig configures the Gemini client and the per-user chat limit.
// Chat is disabled (POST /api/chat answers 500) unless APIKey is set or
// UseADC is true.
type ChatConfig struct {
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	UseADC     bool          `yaml:"use_adc"`
	Timeout    time.Duration `yaml:"timeout"`
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

// Enabled reports whether a text generator can be built.
func (c ChatConfig) Enabled() bool {
	return c.APIKey != "" || c.UseADC
}

// RedisConfig enables chat rate limiting when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
}

type RequestsConfig struct {
	ScopeListToCaller bool `yaml:"scope_list_to_caller"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:        4000,
			CORSOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   "data/organlink.db",
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Chat: ChatConfig{
			Model:      "gemini-2.5-flash",
			Timeout:    30 * time.Second,
			RateLimit:  20,
			RateWindow: time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. path may be empty, in which case only the
// environment and defaults are used; a non-empty path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := cfg.overrideWithEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// overrideWithEnv applies environment variables. lookup is os.LookupEnv
// outside tests.
func (c *Config) overrideWithEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s=%q is not an integer", key, v))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s=%q is not a duration", key, v))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s=%q is not a boolean", key, v))
				return
			}
			*dst = b
		}
	}

	// Server
	integer("PORT", &c.Server.Port)
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	// Database
	str("DB_DRIVER", &c.Database.Driver)
	str("DB_PATH", &c.Database.Path)
	str("DATABASE_URL", &c.Database.URL)

	// Auth
	str("JWT_SECRET", &c.Auth.JWTSecret)
	duration("JWT_TTL", &c.Auth.TokenTTL)

	// Chat
	str("GOOGLE_API_KEY", &c.Chat.APIKey)
	str("GEMINI_MODEL", &c.Chat.Model)
	boolean("GEMINI_USE_ADC", &c.Chat.UseADC)
	duration("CHAT_TIMEOUT", &c.Chat.Timeout)
	integer("CHAT_RATE_LIMIT", &c.Chat.RateLimit)
	duration("CHAT_RATE_WINDOW", &c.Chat.RateWindow)

	// Redis
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)

	// Requests
	boolean("REQUESTS_SCOPE_TO_CALLER", &c.Requests.ScopeListToCaller)

	// Log
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	return errors.Join(errs...)
}

// Validate checks that the configuration can start a server.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url (DATABASE_URL) is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q (want sqlite or postgres)", c.Database.Driver)
	}

	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("auth.jwt_secret (JWT_SECRET) must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("invalid token ttl: %s", c.Auth.TokenTTL)
	}

	if c.Chat.Timeout < 0 {
		return fmt.Errorf("invalid chat timeout: %s", c.Chat.Timeout)
	}
	if c.Redis.Addr != "" {
		if c.Chat.RateLimit <= 0 {
			return fmt.Errorf("invalid chat rate limit: %d", c.Chat.RateLimit)
		}
		if c.Chat.RateWindow <= 0 {
			return fmt.Errorf("invalid chat rate window: %s", c.Chat.RateWindow)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
