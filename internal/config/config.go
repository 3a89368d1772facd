// Package config loads the service configuration: defaults, then an optional
// YAML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// HTTPConfig holds the HTTP listener settings.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// GRPCConfig holds the gRPC listener settings. An empty Addr disables gRPC.
type GRPCConfig struct {
	Addr string `yaml:"addr"`
}

// MealDBConfig describes the upstream recipe API.
type MealDBConfig struct {
	BaseURL          string        `yaml:"base_url"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxAttempts      int           `yaml:"max_attempts"`
	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout"`
}

// RedisConfig holds the optional shared cache tier. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// CacheConfig sizes the response cache.
type CacheConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
	MaxSize int           `yaml:"max_size"`
	Redis   RedisConfig   `yaml:"redis"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AdminConfig guards the administrative routes. An empty Token leaves them
// unauthenticated.
type AdminConfig struct {
	Token string `yaml:"token"`
}

// SecurityConfig configures the optional IP filter. No CIDRs disables it.
type SecurityConfig struct {
	Mode           string   `yaml:"mode"`
	CIDRs          []string `yaml:"cidrs"`
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// RateLimitConfig configures the per-client token bucket. A zero RPS
// disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// CORSConfig lists the origins allowed to call the HTTP API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// TracingConfig selects the span exporter ("none" or "stdout").
type TracingConfig struct {
	Exporter string `yaml:"exporter"`
}

// Config is the root configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	MealDB    MealDBConfig    `yaml:"mealdb"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"admin"`
	Security  SecurityConfig  `yaml:"security"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// Default returns a Config with the stock settings: port 5000, a 100-entry
// cache with a five minute TTL, and the public themealdb.com v1 API.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":5000",
			ShutdownTimeout: 10 * time.Second,
		},
		MealDB: MealDBConfig{
			BaseURL:          "https://www.themealdb.com/api/json/v1/1",
			Timeout:          10 * time.Second,
			MaxAttempts:      3,
			BreakerThreshold: 5,
			BreakerTimeout:   30 * time.Second,
		},
		Cache: CacheConfig{
			Backend: "lru",
			TTL:     5 * time.Minute,
			MaxSize: 100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Security: SecurityConfig{
			Mode: "deny",
		},
		RateLimit: RateLimitConfig{
			RPS:   20,
			Burst: 40,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Tracing: TracingConfig{
			Exporter: "none",
		},
	}
}

// Load builds the effective configuration: Default, overlaid with the YAML
// file at path (skipped when path is empty), overlaid with the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv applies environment variable overrides to cfg.
func ApplyEnv(cfg *Config) error {
	var errs []error

	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTP.Addr = ":" + v
	}
	if v := os.Getenv("GRPC_ADDR"); v != "" {
		cfg.GRPC.Addr = v
	}
	if v := os.Getenv("MEALDB_API_URL"); v != "" {
		cfg.MealDB.BaseURL = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := parseTTL(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CACHE_TTL: %w", err))
		} else {
			cfg.Cache.TTL = d
		}
	}
	if v := os.Getenv("CACHE_MAX_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CACHE_MAX_SIZE: %w", err))
		} else {
			cfg.Cache.MaxSize = n
		}
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.Admin.Token = v
	}
	if v := os.Getenv("TRACING_EXPORTER"); v != "" {
		cfg.Tracing.Exporter = v
	}

	return errors.Join(errs...)
}

// parseTTL accepts a Go duration ("90s") or a bare integer in milliseconds.
func parseTTL(s string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr must be set"))
	}
	if u, err := url.Parse(c.MealDB.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("mealdb.base_url %q is not an absolute URL", c.MealDB.BaseURL))
	}
	if c.MealDB.Timeout <= 0 {
		errs = append(errs, errors.New("mealdb.timeout must be positive"))
	}
	if c.MealDB.MaxAttempts < 1 {
		errs = append(errs, errors.New("mealdb.max_attempts must be at least 1"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}
	if c.Cache.MaxSize <= 0 {
		errs = append(errs, errors.New("cache.max_size must be positive"))
	}
	switch c.Cache.Backend {
	case "", "lru", "ristretto":
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is not one of lru, ristretto", c.Cache.Backend))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	switch c.Tracing.Exporter {
	case "", "none", "stdout":
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter %q is not one of none, stdout", c.Tracing.Exporter))
	}
	if c.RateLimit.RPS < 0 {
		errs = append(errs, errors.New("rate_limit.rps must not be negative"))
	}

	return errors.Join(errs...)
}

// Marshal renders cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
