package handler

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// Check probes one backing dependency.
type Check func(ctx context.Context) error

// HealthDeps groups dependencies required by the probe endpoints.
type HealthDeps struct {
	Logger *zap.Logger
	// Checks are run by GET /ready, keyed by dependency name.
	Checks map[string]Check
	Now    func() time.Time
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	logger *zap.Logger
	checks map[string]Check
	now    func() time.Time
}

// NewHealthHandler creates a probe handler.
func NewHealthHandler(deps HealthDeps) *HealthHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &HealthHandler{logger: logger, checks: deps.Checks, now: now}
}

// Register wires probe routes onto the provided router.
func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/health-check", h.Health)
	router.Get("/ready", h.Ready)
}

// Health reports liveness only; it never touches storage.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Ready runs every configured check and answers 503 if any fails.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(fiber.Map, len(names))
	ready := true
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
		err := h.checks[name](ctx)
		cancel()

		if err != nil {
			ready = false
			results[name] = "unavailable"
			h.logger.Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			continue
		}
		results[name] = "ok"
	}

	status, label := fiber.StatusOK, "ready"
	if !ready {
		status, label = fiber.StatusServiceUnavailable, "unavailable"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": label,
		"checks": results,
	})
}
