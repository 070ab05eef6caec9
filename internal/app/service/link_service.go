package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sifan077/ShortLink/internal/app/model"
	"github.com/sifan077/ShortLink/internal/app/repository"
	infraPrometheus "github.com/sifan077/ShortLink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// ShortenStatus tells whether Shorten created a link or reused one.
type ShortenStatus string

const (
	StatusCreated   ShortenStatus = "created"
	StatusDuplicate ShortenStatus = "duplicate"
)

// ShortenResult is the outcome of a shorten request.
type ShortenResult struct {
	Link   *model.ShortLink
	Status ShortenStatus
}

// LinkService defines behaviour-level operations on links.
type LinkService interface {
	// Shorten returns the existing link for originalURL, or creates one
	// under a fresh unique code. originalURL must already be validated.
	Shorten(ctx context.Context, originalURL string) (*ShortenResult, error)
	RecentLinks(ctx context.Context, limit int) ([]model.ShortLink, error)
}

type linkService struct {
	repo    repository.LinkRepository
	codes   *CodeResolver
	logger  *zap.Logger
	metrics *infraPrometheus.Metrics
}

// NewLinkService returns a service implementation backed by the given repository.
func NewLinkService(repo repository.LinkRepository, codes *CodeResolver, logger *zap.Logger, metrics *infraPrometheus.Metrics) LinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &linkService{
		repo:    repo,
		codes:   codes,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *linkService) Shorten(ctx context.Context, originalURL string) (*ShortenResult, error) {
	existing, err := s.repo.FindByOriginalURL(ctx, originalURL)
	if err == nil {
		s.metrics.LinkReused()
		return &ShortenResult{Link: existing, Status: StatusDuplicate}, nil
	}
	if !errors.Is(err, repository.ErrLinkNotFound) {
		return nil, fmt.Errorf("find link by url: %w", err)
	}

	for attempt := 1; attempt <= s.codes.MaxAttempts(); attempt++ {
		code, err := s.codes.Resolve(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve short code: %w", err)
		}

		link, err := s.repo.Insert(ctx, originalURL, code)
		if err == nil {
			s.codes.MarkTaken(code)
			s.metrics.LinkCreated()
			return &ShortenResult{Link: link, Status: StatusCreated}, nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return nil, fmt.Errorf("create link: %w", err)
		}

		// Another writer took the code between the check and the insert.
		s.codes.MarkTaken(code)
		s.metrics.CodeCollision()
		s.logger.Debug("short code taken on insert, retrying",
			zap.String("code", code),
			zap.Int("attempt", attempt),
		)
	}

	s.logger.Error("short code space exhausted on insert", zap.Int("attempts", s.codes.MaxAttempts()))
	return nil, ErrCodeSpaceExhausted
}

func (s *linkService) RecentLinks(ctx context.Context, limit int) ([]model.ShortLink, error) {
	links, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent links: %w", err)
	}
	return links, nil
}
