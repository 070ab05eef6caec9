package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sifan077/ShortLink/internal/app/model"
	"github.com/sifan077/ShortLink/internal/app/repository"
	"github.com/sifan077/ShortLink/internal/app/service"
	"go.uber.org/zap"
)

// ClickPublisher receives one event per successful redirect.
type ClickPublisher interface {
	Publish(event model.ClickEvent) error
}

// RedirectDeps groups dependencies required by redirect handlers.
type RedirectDeps struct {
	Logger         *zap.Logger
	Redirects      service.RedirectService
	ClickPublisher ClickPublisher
}

// RedirectHandler resolves short codes.
type RedirectHandler struct {
	logger         *zap.Logger
	redirects      service.RedirectService
	clickPublisher ClickPublisher
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:         logger,
		redirects:      deps.Redirects,
		clickPublisher: deps.ClickPublisher,
	}
}

// Register wires redirect routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/s/:code", h.Resolve)
}

// Resolve handles GET /s/:code.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	code := c.Params("code")

	link, err := h.redirects.Resolve(c.UserContext(), code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			h.logger.Debug("short link not found", zap.String("code", code))
			return respondError(c, fiber.StatusNotFound, msgNotFound)
		}
		return failure(c, h.logger, "failed to resolve short link", err)
	}

	if h.clickPublisher != nil {
		// Request values are only valid inside the handler.
		event := service.NewClickEvent(link,
			utils.CopyString(c.IP()),
			utils.CopyString(c.Get(fiber.HeaderUserAgent)),
			utils.CopyString(c.Get(fiber.HeaderReferer)),
		)
		go h.publishClickEvent(event)
	}

	h.logger.Debug("redirecting short link", zap.String("code", link.ShortCode), zap.String("target", link.OriginalURL))
	return c.Redirect(link.OriginalURL, fiber.StatusFound)
}

func (h *RedirectHandler) publishClickEvent(event model.ClickEvent) {
	if err := h.clickPublisher.Publish(event); err != nil {
		h.logger.Warn("failed to publish click event", zap.Error(err), zap.String("code", event.ShortCode))
	}
}
