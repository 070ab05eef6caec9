package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/sifan077/ShortLink/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultSQLMaxOpen  = 10
	defaultSQLLifetime = 5 * time.Minute
)

// sqlPool is the database/sql sizing behind the GORM handle.
type sqlPool struct {
	maxOpen  int
	maxIdle  int
	lifetime time.Duration
	idleTime time.Duration
}

// sqlPoolFor reads the same settings as the pgx pool. MinConns caps idle connections.
func sqlPoolFor(cfg config.PostgresConfig) (sqlPool, error) {
	pool := sqlPool{maxOpen: defaultSQLMaxOpen, lifetime: defaultSQLLifetime}
	if cfg.MaxConns > 0 {
		pool.maxOpen = int(cfg.MaxConns)
	}
	pool.maxIdle = pool.maxOpen
	if cfg.MinConns > 0 && int(cfg.MinConns) < pool.maxOpen {
		pool.maxIdle = int(cfg.MinConns)
	}

	var err error
	if cfg.MaxConnLifetime != "" {
		if pool.lifetime, err = time.ParseDuration(cfg.MaxConnLifetime); err != nil {
			return sqlPool{}, fmt.Errorf("postgres: invalid max_conn_lifetime %q: %w", cfg.MaxConnLifetime, err)
		}
	}
	if cfg.MaxConnIdleTime != "" {
		if pool.idleTime, err = time.ParseDuration(cfg.MaxConnIdleTime); err != nil {
			return sqlPool{}, fmt.Errorf("postgres: invalid max_conn_idle_time %q: %w", cfg.MaxConnIdleTime, err)
		}
	}
	return pool, nil
}

// NewGorm opens the link store's GORM handle, sized from cfg.
func NewGorm(cfg config.PostgresConfig) (*gorm.DB, error) {
	pool, err := sqlPoolFor(cfg)
	if err != nil {
		return nil, err
	}
	return openGorm(ConnString(cfg), pool)
}

// OpenGorm opens a gorm.DB for dsn with default sizing. Unique violations
// surface as gorm.ErrDuplicatedKey.
func OpenGorm(dsn string) (*gorm.DB, error) {
	pool, _ := sqlPoolFor(config.PostgresConfig{})
	return openGorm(dsn, pool)
}

func openGorm(dsn string, pool sqlPool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: open gorm connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: retrieve sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(pool.maxOpen)
	sqlDB.SetMaxIdleConns(pool.maxIdle)
	sqlDB.SetConnMaxLifetime(pool.lifetime)
	sqlDB.SetConnMaxIdleTime(pool.idleTime)

	return db, nil
}

// AutoMigrate creates or updates the tables for models.
func AutoMigrate(ctx context.Context, db *gorm.DB, models ...interface{}) error {
	if db == nil || len(models) == 0 {
		return nil
	}

	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("postgres: auto migrate: %w", err)
	}

	return nil
}
