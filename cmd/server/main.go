package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sifan077/ShortLink/config"
	appmodel "github.com/sifan077/ShortLink/internal/app/model"
	apprepository "github.com/sifan077/ShortLink/internal/app/repository"
	appserver "github.com/sifan077/ShortLink/internal/app/server"
	appservice "github.com/sifan077/ShortLink/internal/app/service"
	"github.com/sifan077/ShortLink/internal/infra/logger"
	infraNATS "github.com/sifan077/ShortLink/internal/infra/nats"
	infraPostgres "github.com/sifan077/ShortLink/internal/infra/postgres"
	infraPrometheus "github.com/sifan077/ShortLink/internal/infra/prometheus"
	infraRedis "github.com/sifan077/ShortLink/internal/infra/redis"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.L().Fatal("Failed to load config", zap.Error(err))
	}

	log := logger.MustInit(logger.FromApp(cfg.App))
	defer func() { _ = logger.Sync() }()

	log.Info("Configuration loaded successfully",
		zap.String("env", cfg.App.Env),
		zap.String("base_url", cfg.App.BaseURL),
		zap.String("store_driver", cfg.Store.Driver),
		zap.Duration("store_timeout", cfg.App.StoreTimeout),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Bool("nats_enabled", cfg.NATS.Enabled),
		zap.Bool("prometheus_enabled", cfg.Prometheus.Enabled),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := appserver.Dependencies{
		Config:  cfg,
		Logger:  log,
		Metrics: infraPrometheus.NewMetrics(registry),
	}

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		log.Info("Connecting to Postgres",
			zap.String("postgres_user", cfg.Postgres.User),
			zap.String("postgres_host", cfg.Postgres.Host),
			zap.Int("postgres_port", cfg.Postgres.Port),
			zap.String("postgres_db", cfg.Postgres.Database),
		)

		gormDB, err := infraPostgres.NewGorm(cfg.Postgres)
		if err != nil {
			log.Fatal("Failed to open GORM connection", zap.Error(err))
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			log.Fatal("Failed to access underlying SQL DB", zap.Error(err))
		}
		defer sqlDB.Close()

		if err := infraPostgres.AutoMigrate(ctx, gormDB, &appmodel.ShortLink{}); err != nil {
			log.Fatal("Failed to run database migrations", zap.Error(err))
		}

		pool, err := infraPostgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			log.Fatal("Failed to connect to Postgres", zap.Error(err))
		}
		defer pool.Close()
		log.Info("Connected to Postgres successfully")

		deps.Postgres = pool
		deps.Links = apprepository.NewLinkRepository(gormDB, cfg.App.StoreTimeout)
	default:
		log.Warn("Using in-memory link store, links are lost on restart")
		deps.Links = apprepository.NewMemoryLinkRepository()
	}

	if cfg.Redis.Enabled {
		redisClient, err := infraRedis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		log.Info("Connected to Redis successfully", zap.String("addr", infraRedis.Addr(cfg.Redis)))
		deps.Redis = redisClient
	}

	if cfg.NATS.Enabled {
		natsConn, js, err := infraNATS.Connect(cfg.NATS)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer natsConn.Drain()

		publisher := appservice.NewClickPublisher(js)
		if err := publisher.EnsureStream(); err != nil {
			log.Fatal("Failed to ensure click stream", zap.Error(err))
		}
		log.Info("Connected to NATS successfully", zap.String("url", infraNATS.URL(cfg.NATS)))
		deps.ClickPublisher = publisher
	}

	if cfg.Prometheus.Enabled {
		promServer := infraPrometheus.NewServer(cfg.Prometheus, registry)
		go func() {
			log.Info("Starting Prometheus metrics server", zap.String("addr", promServer.Addr))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Prometheus metrics server stopped unexpectedly", zap.Error(err))
			}
		}()
		defer func() {
			if err := promServer.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn("Failed to close Prometheus server", zap.Error(err))
			}
		}()
	} else {
		log.Info("Prometheus metrics server disabled")
	}

	server := appserver.New(deps)

	go func() {
		<-ctx.Done()
		log.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown failed", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	log.Info("Starting HTTP server", zap.String("addr", addr))
	if err := server.Listen(addr); err != nil {
		log.Fatal("Fiber server exited", zap.Error(err))
	}
	log.Info("HTTP server stopped")
}
