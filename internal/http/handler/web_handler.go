package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sifan077/ShortLink/internal/app/model"
	"github.com/sifan077/ShortLink/internal/app/service"
	"github.com/sifan077/ShortLink/internal/http/validate"
	"github.com/sifan077/ShortLink/internal/http/view"
	"go.uber.org/zap"
)

const (
	msgCreated   = "URL shortened successfully!"
	msgDuplicate = "This URL has already been shortened!"

	defaultRecentLimit = 5
)

// WebDeps groups dependencies required by the shorten and stats pages.
type WebDeps struct {
	Logger      *zap.Logger
	Links       service.LinkService
	Stats       service.StatsService
	Validator   *validate.Validator
	BaseURL     string
	RecentLimit int
}

// WebHandler serves the shorten form and the statistics page.
type WebHandler struct {
	logger      *zap.Logger
	links       service.LinkService
	stats       service.StatsService
	validator   *validate.Validator
	baseURL     string
	recentLimit int
}

// NewWebHandler creates a web handler with the provided dependencies.
func NewWebHandler(deps WebDeps) *WebHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validator := deps.Validator
	if validator == nil {
		validator = validate.New(validate.ShortenMessages)
	}
	recent := deps.RecentLimit
	if recent <= 0 {
		recent = defaultRecentLimit
	}
	return &WebHandler{
		logger:      logger,
		links:       deps.Links,
		stats:       deps.Stats,
		validator:   validator,
		baseURL:     deps.BaseURL,
		recentLimit: recent,
	}
}

// Register wires the page routes onto router. Extra handlers run before
// POST / only.
func (h *WebHandler) Register(router fiber.Router, shortenGuards ...fiber.Handler) {
	router.Get("/", h.Index)
	router.Post("/", append(shortenGuards, h.Shorten)...)
	router.Get("/stats", h.Stats)
}

// Index handles GET /.
func (h *WebHandler) Index(c *fiber.Ctx) error {
	recent, err := h.links.RecentLinks(c.UserContext(), h.recentLimit)
	if err != nil {
		return failure(c, h.logger, "failed to list recent links", err)
	}

	if wantsJSON(c) {
		return c.JSON(fiber.Map{
			"recentUrls": newLinkResponses(recent, h.baseURL),
		})
	}
	return h.renderIndex(c, fiber.StatusOK, view.IndexPageData{Recent: h.rows(recent)})
}

// Shorten handles POST /.
func (h *WebHandler) Shorten(c *fiber.Ctx) error {
	var req validate.ShortenRequest
	if err := c.BodyParser(&req); err != nil {
		// An unreadable body is validated as an empty one.
		h.logger.Debug("unreadable shorten body", zap.Error(err))
		req = validate.ShortenRequest{}
	}
	req.Normalize()
	// BodyParser values point into the request buffer, which fasthttp reuses.
	req.OriginalURL = utils.CopyString(req.OriginalURL)

	if err := h.validator.Struct(req); err != nil {
		var verr *validate.ValidationError
		if errors.As(err, &verr) {
			return h.rejectInput(c, req, verr)
		}
		return failure(c, h.logger, "failed to validate shorten request", err)
	}

	ctx := c.UserContext()
	result, err := h.links.Shorten(ctx, req.OriginalURL)
	if err != nil {
		return failure(c, h.logger, "failed to shorten url", err)
	}

	message, status := msgCreated, fiber.StatusCreated
	if result.Status == service.StatusDuplicate {
		message, status = msgDuplicate, fiber.StatusOK
	}

	recent, err := h.links.RecentLinks(ctx, h.recentLimit)
	if err != nil {
		return failure(c, h.logger, "failed to list recent links", err)
	}

	if wantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{
			"message":    message,
			"status":     string(result.Status),
			"short_url":  result.Link.ShortURL(h.baseURL),
			"url":        newLinkResponse(*result.Link, h.baseURL),
			"recentUrls": newLinkResponses(recent, h.baseURL),
		})
	}

	row := h.row(*result.Link)
	return h.renderIndex(c, fiber.StatusOK, view.IndexPageData{
		Message: message,
		Result:  &row,
		Recent:  h.rows(recent),
	})
}

func (h *WebHandler) rejectInput(c *fiber.Ctx, req validate.ShortenRequest, verr *validate.ValidationError) error {
	if wantsJSON(c) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": verr.First("original_url"),
			"errors":  verr.Fields,
		})
	}

	recent, err := h.links.RecentLinks(c.UserContext(), h.recentLimit)
	if err != nil {
		return failure(c, h.logger, "failed to list recent links", err)
	}
	return h.renderIndex(c, fiber.StatusUnprocessableEntity, view.IndexPageData{
		Input:  req.OriginalURL,
		Error:  verr.First("original_url"),
		Recent: h.rows(recent),
	})
}

// Stats handles GET /stats?page=N.
func (h *WebHandler) Stats(c *fiber.Ctx) error {
	page := parsePage(c.Query("page"))

	overview, err := h.stats.Overview(c.UserContext(), page)
	if err != nil {
		return failure(c, h.logger, "failed to build stats", err)
	}
	top := overview.Page

	if wantsJSON(c) {
		return c.JSON(fiber.Map{
			"totalUrls":     overview.TotalLinks,
			"totalClicks":   overview.TotalClicks,
			"averageClicks": overview.AverageClicks,
			"urls": fiber.Map{
				"data":         newLinkResponses(top.Links, h.baseURL),
				"current_page": top.Page,
				"last_page":    top.TotalPages,
				"per_page":     top.PageSize,
				"total":        top.Total,
			},
		})
	}

	html, err := view.RenderStatsPage(view.StatsPageData{
		TotalLinks:    overview.TotalLinks,
		TotalClicks:   overview.TotalClicks,
		AverageClicks: overview.AverageClicks,
		Links:         h.rows(top.Links),
		Page:          top.Page,
		LastPage:      top.TotalPages,
		Offset:        top.Offset,
	})
	if err != nil {
		return failure(c, h.logger, "failed to render stats page", err)
	}
	return c.Type("html", "utf-8").SendString(html)
}

func (h *WebHandler) renderIndex(c *fiber.Ctx, status int, data view.IndexPageData) error {
	html, err := view.RenderIndexPage(data)
	if err != nil {
		return failure(c, h.logger, "failed to render index page", err)
	}
	return c.Status(status).Type("html", "utf-8").SendString(html)
}

func (h *WebHandler) row(link model.ShortLink) view.LinkRow {
	return view.LinkRow{
		ShortCode:   link.ShortCode,
		ShortURL:    link.ShortURL(h.baseURL),
		OriginalURL: link.OriginalURL,
		Clicks:      link.Clicks,
		CreatedAt:   link.CreatedAt,
	}
}

func (h *WebHandler) rows(links []model.ShortLink) []view.LinkRow {
	out := make([]view.LinkRow, 0, len(links))
	for _, link := range links {
		out = append(out, h.row(link))
	}
	return out
}

// parsePage reads ?page; anything missing, non-numeric or below 1 is page 1.
func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
