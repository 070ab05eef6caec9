package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/ShortLink/config"
	"github.com/sifan077/ShortLink/internal/app/repository"
	"github.com/sifan077/ShortLink/internal/app/service"
	inthttp "github.com/sifan077/ShortLink/internal/http/handler"
	"github.com/sifan077/ShortLink/internal/http/middleware"
	"github.com/sifan077/ShortLink/internal/http/validate"
	infraPrometheus "github.com/sifan077/ShortLink/internal/infra/prometheus"
	infraRedis "github.com/sifan077/ShortLink/internal/infra/redis"
	"go.uber.org/zap"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
)

// Dependencies bundles infrastructure dependencies required by the HTTP server.
// Postgres, Redis, ClickPublisher and Metrics are optional.
type Dependencies struct {
	Config         *config.Config
	Logger         *zap.Logger
	Postgres       *pgxpool.Pool
	Redis          *redis.Client
	ClickPublisher inthttp.ClickPublisher
	Links          repository.LinkRepository
	Metrics        *infraPrometheus.Metrics
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app    *fiber.App
	deps   Dependencies
	logger *zap.Logger
}

// New creates the HTTP server with middleware and all routes registered.
func New(deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{deps: deps, logger: logger}

	s.app = fiber.New(fiber.Config{
		AppName:               "ShortLink",
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		DisableStartupMessage: !deps.Config.App.IsDevelopment(),
		ErrorHandler:          s.handleError,
	})

	s.app.Use(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Metrics(deps.Metrics),
		middleware.CORS(),
	)

	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	cfg := s.deps.Config
	links := s.deps.Links

	resolver := service.NewCodeResolver(links, service.ResolverConfig{
		CodeLength:    cfg.Shortener.CodeLength,
		MaxAttempts:   cfg.Shortener.MaxAttempts,
		BloomCapacity: cfg.Shortener.BloomCapacity,
		BloomFPRate:   cfg.Shortener.BloomFPRate,
	}, s.logger, s.deps.Metrics)

	healthHandler := inthttp.NewHealthHandler(inthttp.HealthDeps{
		Logger: s.logger,
		Checks: s.readinessChecks(),
	})
	healthHandler.Register(s.app)

	webHandler := inthttp.NewWebHandler(inthttp.WebDeps{
		Logger:      s.logger,
		Links:       service.NewLinkService(links, resolver, s.logger, s.deps.Metrics),
		Stats:       service.NewStatsService(links, cfg.Shortener.PageSize),
		Validator:   validate.New(validate.ShortenMessages),
		BaseURL:     cfg.App.BaseURL,
		RecentLimit: cfg.Shortener.RecentLimit,
	})
	webHandler.Register(s.app, s.shortenGuards()...)

	redirectHandler := inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:         s.logger,
		Redirects:      service.NewRedirectService(links, s.logger, s.deps.Metrics),
		ClickPublisher: s.deps.ClickPublisher,
	})
	redirectHandler.Register(s.app)
}

func (s *Server) shortenGuards() []fiber.Handler {
	rl := s.deps.Config.RateLimit
	if !rl.Enabled || s.deps.Redis == nil {
		return nil
	}
	limit := middleware.DefaultRateLimitConfig()
	limit.MaxRequests = rl.MaxRequests
	limit.Window = rl.Window
	return []fiber.Handler{middleware.RateLimit(s.deps.Redis, limit, s.logger)}
}

func (s *Server) readinessChecks() map[string]inthttp.Check {
	checks := make(map[string]inthttp.Check)
	if pool := s.deps.Postgres; pool != nil {
		checks["postgres"] = pool.Ping
	}
	if rdb := s.deps.Redis; rdb != nil {
		checks["redis"] = func(ctx context.Context) error {
			return infraRedis.Ping(ctx, rdb)
		}
	}
	return checks
}

// handleError answers errors no handler turned into a response.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	s.logger.Error("unhandled request error", zap.Error(err), zap.String("path", c.Path()))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}
