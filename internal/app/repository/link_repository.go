package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sifan077/ShortLink/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrLinkNotFound signals that the requested short link does not exist.
	ErrLinkNotFound = errors.New("link not found")
	// ErrDuplicateCode signals that the short code is already taken.
	ErrDuplicateCode = errors.New("short code already exists")
	// ErrStoreTimeout signals that a storage call did not finish in time.
	// Callers may retry.
	ErrStoreTimeout = errors.New("link store timeout")
)

// DefaultTimeout bounds every storage call when no timeout is configured.
const DefaultTimeout = 2 * time.Second

const uniqueViolation = "23505"

// Page is one page of links ordered by clicks.
type Page struct {
	Links    []model.ShortLink
	Page     int
	PageSize int
	// Offset is the number of links ranked above the first one on this page.
	Offset     int
	Total      int64
	TotalPages int
}

// LinkRepository defines the data access contract for short links.
type LinkRepository interface {
	FindByOriginalURL(ctx context.Context, url string) (*model.ShortLink, error)
	FindByCode(ctx context.Context, code string) (*model.ShortLink, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Insert(ctx context.Context, originalURL, code string) (*model.ShortLink, error)
	// IncrementClicks adds one click in the store and returns the new count.
	IncrementClicks(ctx context.Context, id uint64) (int64, error)
	CountAll(ctx context.Context) (int64, error)
	SumClicks(ctx context.Context) (int64, error)
	// ListTopByClicks orders by clicks desc, then created_at asc, then id asc.
	ListTopByClicks(ctx context.Context, page, pageSize int) (*Page, error)
	// ListRecent returns the newest links first.
	ListRecent(ctx context.Context, limit int) ([]model.ShortLink, error)
}

type linkRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewLinkRepository returns a GORM-backed LinkRepository. Every call is
// bounded by timeout.
func NewLinkRepository(db *gorm.DB, timeout time.Duration) LinkRepository {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &linkRepository{db: db, timeout: timeout}
}

func (r *linkRepository) FindByOriginalURL(ctx context.Context, url string) (*model.ShortLink, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var link model.ShortLink
	err := r.db.WithContext(ctx).
		Where("original_url = ?", url).
		Order("id ASC").
		First(&link).Error
	if err != nil {
		return nil, translate(ctx, err)
	}
	return &link, nil
}

func (r *linkRepository) FindByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var link model.ShortLink
	if err := r.db.WithContext(ctx).Where("short_code = ?", code).First(&link).Error; err != nil {
		return nil, translate(ctx, err)
	}
	return &link, nil
}

func (r *linkRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ShortLink{}).
		Where("short_code = ?", code).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, translate(ctx, err)
	}
	return count > 0, nil
}

func (r *linkRepository) Insert(ctx context.Context, originalURL, code string) (*model.ShortLink, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	link := &model.ShortLink{
		OriginalURL: originalURL,
		ShortCode:   code,
	}
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return nil, translate(ctx, err)
	}
	return link, nil
}

func (r *linkRepository) IncrementClicks(ctx context.Context, id uint64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// clicks = clicks + 1 runs in the database; no read-modify-write here.
	link := model.ShortLink{ID: id}
	result := r.db.WithContext(ctx).
		Model(&link).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "clicks"}}}).
		UpdateColumns(map[string]interface{}{
			"clicks":     gorm.Expr("clicks + ?", 1),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, translate(ctx, result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, ErrLinkNotFound
	}
	return link.Clicks, nil
}

func (r *linkRepository) CountAll(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int64
	if err := r.db.WithContext(ctx).Model(&model.ShortLink{}).Count(&count).Error; err != nil {
		return 0, translate(ctx, err)
	}
	return count, nil
}

func (r *linkRepository) SumClicks(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var sum int64
	err := r.db.WithContext(ctx).
		Model(&model.ShortLink{}).
		Select("COALESCE(SUM(clicks), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, translate(ctx, err)
	}
	return sum, nil
}

func (r *linkRepository) ListTopByClicks(ctx context.Context, page, pageSize int) (*Page, error) {
	page, pageSize = normalizePage(page, pageSize)

	total, err := r.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	offset, ok := pageOffset(page, pageSize)
	if !ok || int64(offset) >= total {
		return newPage(nil, page, pageSize, total), nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var links []model.ShortLink
	err = r.db.WithContext(ctx).
		Order("clicks DESC").
		Order("created_at ASC").
		Order("id ASC").
		Limit(pageSize).
		Offset(offset).
		Find(&links).Error
	if err != nil {
		return nil, translate(ctx, err)
	}

	return newPage(links, page, pageSize, total), nil
}

func (r *linkRepository) ListRecent(ctx context.Context, limit int) ([]model.ShortLink, error) {
	if limit <= 0 {
		limit = 5
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var links []model.ShortLink
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&links).Error
	if err != nil {
		return nil, translate(ctx, err)
	}
	return links, nil
}

// translate maps driver errors onto the package sentinels.
func translate(ctx context.Context, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrLinkNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateCode
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateCode
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStoreTimeout, err)
	}
	return err
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	return page, pageSize
}

// pageOffset reports the row offset of page, or false when it does not fit in an int.
func pageOffset(page, pageSize int) (int, bool) {
	if page-1 > math.MaxInt/pageSize {
		return 0, false
	}
	return (page - 1) * pageSize, true
}

func newPage(links []model.ShortLink, page, pageSize int, total int64) *Page {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	if links == nil {
		links = []model.ShortLink{}
	}
	offset, _ := pageOffset(page, pageSize)
	return &Page{
		Links:      links,
		Page:       page,
		PageSize:   pageSize,
		Offset:     offset,
		Total:      total,
		TotalPages: totalPages,
	}
}
