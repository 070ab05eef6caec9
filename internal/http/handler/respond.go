package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/ShortLink/internal/app/model"
	"github.com/sifan077/ShortLink/internal/app/repository"
	"go.uber.org/zap"
)

const (
	msgInternal    = "internal server error"
	msgUnavailable = "service temporarily unavailable"
	msgNotFound    = "short link not found"
)

// wantsJSON reports whether the client prefers JSON over HTML.
func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

// respondError answers with a generic message in the negotiated format.
func respondError(c *fiber.Ctx, status int, message string) error {
	if wantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{"error": message})
	}
	return c.Status(status).SendString(message)
}

// failure maps a service error onto a status and logs it. Details never
// reach the client.
func failure(c *fiber.Ctx, logger *zap.Logger, msg string, err error) error {
	status, message := fiber.StatusInternalServerError, msgInternal
	if errors.Is(err, repository.ErrStoreTimeout) {
		status, message = fiber.StatusServiceUnavailable, msgUnavailable
	}
	logger.Error(msg,
		zap.Error(err),
		zap.String("path", c.Path()),
		zap.Int("status", status),
	)
	return respondError(c, status, message)
}

// linkResponse is the JSON form of a short link.
type linkResponse struct {
	ID          uint64    `json:"id"`
	OriginalURL string    `json:"original_url"`
	ShortCode   string    `json:"short_code"`
	ShortURL    string    `json:"short_url"`
	Clicks      int64     `json:"clicks"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newLinkResponse(link model.ShortLink, baseURL string) linkResponse {
	return linkResponse{
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
		ShortCode:   link.ShortCode,
		ShortURL:    link.ShortURL(baseURL),
		Clicks:      link.Clicks,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
	}
}

func newLinkResponses(links []model.ShortLink, baseURL string) []linkResponse {
	out := make([]linkResponse, 0, len(links))
	for _, link := range links {
		out = append(out, newLinkResponse(link, baseURL))
	}
	return out
}
