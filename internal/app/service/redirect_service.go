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

// RedirectService resolves short codes for redirects.
type RedirectService interface {
	// Resolve looks up code and counts a click. It returns
	// repository.ErrLinkNotFound for unknown codes. A failed click update is
	// logged and does not fail the lookup.
	Resolve(ctx context.Context, code string) (*model.ShortLink, error)
}

type redirectService struct {
	repo    repository.LinkRepository
	logger  *zap.Logger
	metrics *infraPrometheus.Metrics
}

// NewRedirectService returns a RedirectService backed by repo.
func NewRedirectService(repo repository.LinkRepository, logger *zap.Logger, metrics *infraPrometheus.Metrics) RedirectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redirectService{repo: repo, logger: logger, metrics: metrics}
}

func (s *redirectService) Resolve(ctx context.Context, code string) (*model.ShortLink, error) {
	link, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			s.metrics.Redirect(infraPrometheus.RedirectMiss)
			return nil, err
		}
		return nil, fmt.Errorf("find link by code: %w", err)
	}
	s.metrics.Redirect(infraPrometheus.RedirectHit)

	// The click is counted even if the client has already gone away.
	clicks, err := s.repo.IncrementClicks(context.WithoutCancel(ctx), link.ID)
	if err != nil {
		s.metrics.IncrementFailed()
		s.logger.Warn("failed to increment clicks",
			zap.Error(err),
			zap.String("code", code),
			zap.Uint64("link_id", link.ID),
		)
		return link, nil
	}

	link.Clicks = clicks
	return link, nil
}
