package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sifan077/ShortLink/internal/app/model"
)

type memoryLinkRepository struct {
	mu     sync.RWMutex
	nextID uint64
	byID   map[uint64]*model.ShortLink
	byCode map[string]uint64
	now    func() time.Time
}

// NewMemoryLinkRepository returns a process-local LinkRepository. It keeps
// the same uniqueness and ordering rules as the Postgres implementation.
func NewMemoryLinkRepository() LinkRepository {
	return &memoryLinkRepository{
		byID:   make(map[uint64]*model.ShortLink),
		byCode: make(map[string]uint64),
		now:    time.Now,
	}
}

func (r *memoryLinkRepository) FindByOriginalURL(ctx context.Context, url string) (*model.ShortLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *model.ShortLink
	for _, link := range r.byID {
		if link.OriginalURL != url {
			continue
		}
		if found == nil || link.ID < found.ID {
			found = link
		}
	}
	if found == nil {
		return nil, ErrLinkNotFound
	}
	copied := *found
	return &copied, nil
}

func (r *memoryLinkRepository) FindByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byCode[code]
	if !ok {
		return nil, ErrLinkNotFound
	}
	copied := *r.byID[id]
	return &copied, nil
}

func (r *memoryLinkRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byCode[code]
	return ok, nil
}

func (r *memoryLinkRepository) Insert(ctx context.Context, originalURL, code string) (*model.ShortLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byCode[code]; ok {
		return nil, ErrDuplicateCode
	}

	r.nextID++
	now := r.now()
	link := &model.ShortLink{
		ID:          r.nextID,
		OriginalURL: strings.Clone(originalURL),
		ShortCode:   strings.Clone(code),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.byID[link.ID] = link
	r.byCode[link.ShortCode] = link.ID

	copied := *link
	return &copied, nil
}

func (r *memoryLinkRepository) IncrementClicks(ctx context.Context, id uint64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.byID[id]
	if !ok {
		return 0, ErrLinkNotFound
	}
	link.Clicks++
	link.UpdatedAt = r.now()
	return link.Clicks, nil
}

func (r *memoryLinkRepository) CountAll(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

func (r *memoryLinkRepository) SumClicks(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum int64
	for _, link := range r.byID {
		sum += link.Clicks
	}
	return sum, nil
}

func (r *memoryLinkRepository) ListTopByClicks(ctx context.Context, page, pageSize int) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, pageSize = normalizePage(page, pageSize)

	links := r.snapshot()
	sort.Slice(links, func(i, j int) bool {
		a, b := links[i], links[j]
		if a.Clicks != b.Clicks {
			return a.Clicks > b.Clicks
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	total := int64(len(links))
	start, ok := pageOffset(page, pageSize)
	if !ok || start > len(links) {
		start = len(links)
	}
	end := len(links)
	if pageSize < end-start {
		end = start + pageSize
	}

	return newPage(links[start:end], page, pageSize, total), nil
}

func (r *memoryLinkRepository) ListRecent(ctx context.Context, limit int) ([]model.ShortLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	links := r.snapshot()
	sort.Slice(links, func(i, j int) bool {
		a, b := links[i], links[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	if len(links) > limit {
		links = links[:limit]
	}
	return links, nil
}

func (r *memoryLinkRepository) snapshot() []model.ShortLink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	links := make([]model.ShortLink, 0, len(r.byID))
	for _, link := range r.byID {
		links = append(links, *link)
	}
	return links
}
