package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sifan077/ShortLink/config"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultHost        = "localhost"
	defaultPort        = 5432
	defaultSSLMode     = "disable"
)

// NewPool creates a pgx connection pool using the provided config and verifies connectivity.
func NewPool(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if err := applyPoolSettings(poolCfg, cfg); err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(dialCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return pool, nil
}

// applyPoolSettings copies pool sizing onto poolCfg. Zero values keep the
// pgx defaults.
func applyPoolSettings(poolCfg *pgxpool.Config, cfg config.PostgresConfig) error {
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"max_conn_lifetime", cfg.MaxConnLifetime, &poolCfg.MaxConnLifetime},
		{"max_conn_idle_time", cfg.MaxConnIdleTime, &poolCfg.MaxConnIdleTime},
		{"health_check_period", cfg.HealthCheckPeriod, &poolCfg.HealthCheckPeriod},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.value)
		if err != nil {
			return fmt.Errorf("postgres: invalid %s %q: %w", d.name, d.value, err)
		}
		*d.dst = parsed
	}
	return nil
}

// ConnString builds a postgres:// URL, filling in localhost:5432 and
// sslmode=disable when unset.
func ConnString(cfg config.PostgresConfig) string {
	host := cfg.Host
	if host == "" {
		host = defaultHost
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     host + ":" + strconv.Itoa(port),
		Path:     "/" + cfg.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	switch {
	case cfg.User != "" && cfg.Password != "":
		u.User = url.UserPassword(cfg.User, cfg.Password)
	case cfg.User != "":
		u.User = url.User(cfg.User)
	}
	return u.String()
}
