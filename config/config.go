package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Application
	App AppConfig `mapstructure:"app"`

	// Short code generation and listing
	Shortener ShortenerConfig `mapstructure:"shortener"`

	// Link storage backend
	Store StoreConfig `mapstructure:"store"`

	// PostgreSQL
	Postgres PostgresConfig `mapstructure:"postgres"`

	// Redis
	Redis RedisConfig `mapstructure:"redis"`

	// Rate limiting of link creation
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// NATS
	NATS NATSConfig `mapstructure:"nats"`

	// Prometheus
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

type AppConfig struct {
	Env          string        `mapstructure:"env"`
	Port         int           `mapstructure:"port"`
	BaseURL      string        `mapstructure:"base_url"`
	LogLevel     string        `mapstructure:"log_level"`
	StoreTimeout time.Duration `mapstructure:"store_timeout"`
}

// IsDevelopment reports whether the app runs outside production.
func (a AppConfig) IsDevelopment() bool {
	return a.Env != "production"
}

type ShortenerConfig struct {
	CodeLength    int     `mapstructure:"code_length"`
	MaxAttempts   int     `mapstructure:"max_attempts"`
	PageSize      int     `mapstructure:"page_size"`
	RecentLimit   int     `mapstructure:"recent_limit"`
	BloomCapacity uint    `mapstructure:"bloom_capacity"`
	BloomFPRate   float64 `mapstructure:"bloom_fp_rate"`
}

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	Database          string `mapstructure:"database"`
	Port              int    `mapstructure:"port"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   string `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   string `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod string `mapstructure:"health_check_period"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

type NATSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type PrometheusConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

func Load() (*Config, error) {
	// Load local .env for development (ignored when missing).
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Search for config/config.yaml (plus root for overrides).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Allow environment variables to override YAML entries.
	v.SetEnvPrefix("")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Preserve legacy env variable names.
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Shortener.CodeLength <= 0 {
		return fmt.Errorf("config: shortener.code_length must be positive")
	}
	if c.Shortener.MaxAttempts <= 0 {
		return fmt.Errorf("config: shortener.max_attempts must be positive")
	}
	if c.Shortener.PageSize <= 0 {
		return fmt.Errorf("config: shortener.page_size must be positive")
	}
	c.App.BaseURL = strings.TrimRight(c.App.BaseURL, "/")
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.store_timeout", 2*time.Second)

	v.SetDefault("shortener.code_length", 6)
	v.SetDefault("shortener.max_attempts", 10)
	v.SetDefault("shortener.page_size", 10)
	v.SetDefault("shortener.recent_limit", 5)
	v.SetDefault("shortener.bloom_capacity", 1_000_000)
	v.SetDefault("shortener.bloom_fp_rate", 0.01)

	v.SetDefault("store.driver", StoreDriverMemory)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.max_requests", 30)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.host", "localhost")
	v.SetDefault("nats.port", 4222)

	v.SetDefault("prometheus.enabled", false)
	v.SetDefault("prometheus.port", 9090)
}

func bindEnvVars(v *viper.Viper) {
	// Application
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.port", "PORT")
	v.BindEnv("app.base_url", "APP_URL")
	v.BindEnv("app.log_level", "LOG_LEVEL")
	v.BindEnv("app.store_timeout", "STORE_TIMEOUT")

	// Storage
	v.BindEnv("store.driver", "STORE_DRIVER")

	// PostgreSQL
	v.BindEnv("postgres.host", "PG_HOST")
	v.BindEnv("postgres.user", "PG_USER")
	v.BindEnv("postgres.password", "PG_PASSWORD")
	v.BindEnv("postgres.database", "PG_DB")
	v.BindEnv("postgres.port", "PG_PORT")
	v.BindEnv("postgres.sslmode", "PG_SSLMODE")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// Rate limiting
	v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	v.BindEnv("rate_limit.max_requests", "RATE_LIMIT_MAX")
	v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")

	// NATS
	v.BindEnv("nats.enabled", "NATS_ENABLED")
	v.BindEnv("nats.host", "NATS_HOST")
	v.BindEnv("nats.port", "NATS_PORT")
	v.BindEnv("nats.user", "NATS_USER")
	v.BindEnv("nats.password", "NATS_PASSWORD")

	// Prometheus
	v.BindEnv("prometheus.enabled", "PROM_ENABLED")
	v.BindEnv("prometheus.port", "PROM_PORT")
}
