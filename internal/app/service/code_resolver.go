package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/sifan077/ShortLink/internal/app/repository"
	infraPrometheus "github.com/sifan077/ShortLink/internal/infra/prometheus"
	"go.uber.org/zap"
)

// ErrCodeSpaceExhausted is returned when no free short code was found
// within the attempt ceiling.
var ErrCodeSpaceExhausted = errors.New("short code space exhausted")

const (
	defaultMaxAttempts   = 10
	defaultBloomCapacity = 1_000_000
	defaultBloomFPRate   = 0.01
)

// ResolverConfig tunes CodeResolver.
type ResolverConfig struct {
	CodeLength    int
	MaxAttempts   int
	BloomCapacity uint
	BloomFPRate   float64
}

// CodeResolver draws random codes until one is not present in the store.
//
// Codes this process has seen taken are kept in a bloom filter so they can be
// redrawn without a store round trip. A false positive only costs a redraw.
type CodeResolver struct {
	links       repository.LinkRepository
	generate    func() (string, error)
	maxAttempts int
	logger      *zap.Logger
	metrics     *infraPrometheus.Metrics

	mu    sync.Mutex
	taken *bloom.BloomFilter
}

// NewCodeResolver builds a resolver backed by links.
func NewCodeResolver(links repository.LinkRepository, cfg ResolverConfig, logger *zap.Logger, metrics *infraPrometheus.Metrics) *CodeResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	length := cfg.CodeLength
	if length <= 0 {
		length = DefaultCodeLength
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	capacity := cfg.BloomCapacity
	if capacity == 0 {
		capacity = defaultBloomCapacity
	}
	fpRate := cfg.BloomFPRate
	if fpRate <= 0 || fpRate >= 1 {
		fpRate = defaultBloomFPRate
	}

	return &CodeResolver{
		links: links,
		generate: func() (string, error) {
			return GenerateCode(length, Alphabet)
		},
		maxAttempts: maxAttempts,
		logger:      logger,
		metrics:     metrics,
		taken:       bloom.NewWithEstimates(capacity, fpRate),
	}
}

// MaxAttempts is the number of draws Resolve makes before giving up.
func (r *CodeResolver) MaxAttempts() int {
	return r.maxAttempts
}

// Resolve returns a code that was not present in the store when checked.
// The insert that follows can still collide; callers treat
// repository.ErrDuplicateCode as a signal to resolve again.
func (r *CodeResolver) Resolve(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		code, err := r.generate()
		if err != nil {
			return "", err
		}

		if r.seenTaken(code) {
			r.metrics.CodeCollision()
			continue
		}

		exists, err := r.links.ExistsByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check short code: %w", err)
		}
		if !exists {
			return code, nil
		}

		r.MarkTaken(code)
		r.metrics.CodeCollision()
		r.logger.Debug("short code collision", zap.String("code", code), zap.Int("attempt", attempt))
	}

	r.logger.Error("short code space exhausted", zap.Int("attempts", r.maxAttempts))
	return "", ErrCodeSpaceExhausted
}

// MarkTaken records code as used.
func (r *CodeResolver) MarkTaken(code string) {
	r.mu.Lock()
	r.taken.AddString(code)
	r.mu.Unlock()
}

func (r *CodeResolver) seenTaken(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.taken.TestString(code)
}
