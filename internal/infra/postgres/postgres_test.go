package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sifan077/ShortLink/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnString_Defaults(t *testing.T) {
	got := ConnString(config.PostgresConfig{User: "app", Database: "links"})
	assert.Equal(t, "postgres://app@localhost:5432/links?sslmode=disable", got)
}

func TestConnString_EscapesCredentials(t *testing.T) {
	got := ConnString(config.PostgresConfig{
		Host:     "db",
		Port:     6543,
		User:     "app",
		Password: "pa ss/word",
		Database: "links",
		SSLMode:  "require",
	})
	assert.Equal(t, "postgres://app:pa%20ss%2Fword@db:6543/links?sslmode=require", got)
}

func TestApplyPoolSettings(t *testing.T) {
	poolCfg, err := pgxpool.ParseConfig(ConnString(config.PostgresConfig{User: "app", Database: "links"}))
	require.NoError(t, err)

	err = applyPoolSettings(poolCfg, config.PostgresConfig{
		MaxConns:          20,
		MinConns:          2,
		MaxConnLifetime:   "30m",
		HealthCheckPeriod: "15s",
	})
	require.NoError(t, err)
	assert.Equal(t, int32(20), poolCfg.MaxConns)
	assert.Equal(t, int32(2), poolCfg.MinConns)
	assert.Equal(t, 30*time.Minute, poolCfg.MaxConnLifetime)
	assert.Equal(t, 15*time.Second, poolCfg.HealthCheckPeriod)
}

func TestApplyPoolSettings_InvalidDuration(t *testing.T) {
	poolCfg, err := pgxpool.ParseConfig(ConnString(config.PostgresConfig{}))
	require.NoError(t, err)

	err = applyPoolSettings(poolCfg, config.PostgresConfig{MaxConnIdleTime: "forever"})
	assert.ErrorContains(t, err, "max_conn_idle_time")
}

func TestSQLPoolFor(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		pool, err := sqlPoolFor(config.PostgresConfig{})
		require.NoError(t, err)
		assert.Equal(t, defaultSQLMaxOpen, pool.maxOpen)
		assert.Equal(t, defaultSQLMaxOpen, pool.maxIdle)
		assert.Equal(t, defaultSQLLifetime, pool.lifetime)
		assert.Zero(t, pool.idleTime)
	})

	t.Run("from config", func(t *testing.T) {
		pool, err := sqlPoolFor(config.PostgresConfig{
			MaxConns:        20,
			MinConns:        4,
			MaxConnLifetime: "1h",
			MaxConnIdleTime: "90s",
		})
		require.NoError(t, err)
		assert.Equal(t, 20, pool.maxOpen)
		assert.Equal(t, 4, pool.maxIdle)
		assert.Equal(t, time.Hour, pool.lifetime)
		assert.Equal(t, 90*time.Second, pool.idleTime)
	})

	t.Run("invalid lifetime", func(t *testing.T) {
		_, err := sqlPoolFor(config.PostgresConfig{MaxConnLifetime: "soon"})
		assert.ErrorContains(t, err, "max_conn_lifetime")
	})
}
