package service

import (
	"context"

	"github.com/sifan077/ShortLink/internal/app/model"
	"github.com/sifan077/ShortLink/internal/app/repository"
)

type mockLinkRepository struct {
	findByURLFn  func(ctx context.Context, url string) (*model.ShortLink, error)
	findByCodeFn func(ctx context.Context, code string) (*model.ShortLink, error)
	existsFn     func(ctx context.Context, code string) (bool, error)
	insertFn     func(ctx context.Context, originalURL, code string) (*model.ShortLink, error)
	incrementFn  func(ctx context.Context, id uint64) (int64, error)
	countFn      func(ctx context.Context) (int64, error)
	sumFn        func(ctx context.Context) (int64, error)
	listTopFn    func(ctx context.Context, page, pageSize int) (*repository.Page, error)
	listRecentFn func(ctx context.Context, limit int) ([]model.ShortLink, error)
}

func (m *mockLinkRepository) FindByOriginalURL(ctx context.Context, url string) (*model.ShortLink, error) {
	if m.findByURLFn != nil {
		return m.findByURLFn(ctx, url)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) FindByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	if m.findByCodeFn != nil {
		return m.findByCodeFn(ctx, code)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, code)
	}
	return false, nil
}

func (m *mockLinkRepository) Insert(ctx context.Context, originalURL, code string) (*model.ShortLink, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, originalURL, code)
	}
	return &model.ShortLink{ID: 1, OriginalURL: originalURL, ShortCode: code}, nil
}

func (m *mockLinkRepository) IncrementClicks(ctx context.Context, id uint64) (int64, error) {
	if m.incrementFn != nil {
		return m.incrementFn(ctx, id)
	}
	return 1, nil
}

func (m *mockLinkRepository) CountAll(ctx context.Context) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockLinkRepository) SumClicks(ctx context.Context) (int64, error) {
	if m.sumFn != nil {
		return m.sumFn(ctx)
	}
	return 0, nil
}

func (m *mockLinkRepository) ListTopByClicks(ctx context.Context, page, pageSize int) (*repository.Page, error) {
	if m.listTopFn != nil {
		return m.listTopFn(ctx, page, pageSize)
	}
	return &repository.Page{Page: page, PageSize: pageSize, TotalPages: 1}, nil
}

func (m *mockLinkRepository) ListRecent(ctx context.Context, limit int) ([]model.ShortLink, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, limit)
	}
	return nil, nil
}
