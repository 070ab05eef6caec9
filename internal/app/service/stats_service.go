package service

import (
	"context"
	"fmt"

	"github.com/sifan077/ShortLink/internal/app/repository"
)

// DefaultPageSize is the number of links per stats page.
const DefaultPageSize = 10

// Overview aggregates the stats page.
type Overview struct {
	TotalLinks    int64
	TotalClicks   int64
	AverageClicks float64
	Page          *repository.Page
}

// StatsService is read-only over the link store.
type StatsService interface {
	Overview(ctx context.Context, page int) (*Overview, error)
}

type statsService struct {
	repo     repository.LinkRepository
	pageSize int
}

// NewStatsService returns a StatsService listing pageSize links per page.
func NewStatsService(repo repository.LinkRepository, pageSize int) StatsService {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &statsService{repo: repo, pageSize: pageSize}
}

func (s *statsService) Overview(ctx context.Context, page int) (*Overview, error) {
	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count links: %w", err)
	}

	clicks, err := s.repo.SumClicks(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum clicks: %w", err)
	}

	top, err := s.repo.ListTopByClicks(ctx, page, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("list top links: %w", err)
	}

	return &Overview{
		TotalLinks:    total,
		TotalClicks:   clicks,
		AverageClicks: AverageClicks(clicks, total),
		Page:          top,
	}, nil
}

// AverageClicks is clicks/links, or 0 without links.
func AverageClicks(clicks, links int64) float64 {
	if links <= 0 {
		return 0
	}
	return float64(clicks) / float64(links)
}
