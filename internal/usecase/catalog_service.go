package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
	"github.com/foodlens/backend/internal/infrastructure/cache"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100

	statsCacheKey = "catalog:stats"
)

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	CacheTTL time.Duration
}

// CatalogService serves the read API with cache-aside lookups for
// product details and global stats
type CatalogService struct {
	reader   domain.CatalogReader
	cache    domain.CacheRepository
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service with dependencies
func NewCatalogService(reader domain.CatalogReader, cache domain.CacheRepository, config CatalogServiceConfig, logger *zap.Logger) *CatalogService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	return &CatalogService{
		reader:   reader,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.Named("catalog"),
	}
}

// ListProducts returns one page of products matching the filter
func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	items, total, err := s.reader.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if items == nil {
		items = []domain.ProductSummary{}
	}

	return &domain.ProductPage{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: (total + filter.PageSize - 1) / filter.PageSize,
	}, nil
}

// normalizeFilter applies defaults and rejects out-of-range parameters
func normalizeFilter(f domain.ProductFilter) (domain.ProductFilter, error) {
	if f.Page == 0 {
		f.Page = defaultPage
	}
	if f.PageSize == 0 {
		f.PageSize = defaultPageSize
	}
	if f.Page < 1 {
		return f, fmt.Errorf("%w: page must be at least 1", domain.ErrInvalidRequest)
	}
	if f.PageSize < 1 || f.PageSize > maxPageSize {
		return f, fmt.Errorf("%w: page_size must be between 1 and %d", domain.ErrInvalidRequest, maxPageSize)
	}
	if f.MinQuality != nil && (*f.MinQuality < 0 || *f.MinQuality > 100) {
		return f, fmt.Errorf("%w: min_quality must be between 0 and 100", domain.ErrInvalidRequest)
	}

	f.Nutriscore = strings.ToLower(strings.TrimSpace(f.Nutriscore))
	if f.Nutriscore != "" && (len(f.Nutriscore) != 1 || f.Nutriscore < "a" || f.Nutriscore > "e") {
		return f, fmt.Errorf("%w: nutriscore must be one of a, b, c, d, e", domain.ErrInvalidRequest)
	}
	f.Brand = strings.TrimSpace(f.Brand)
	f.Category = strings.TrimSpace(f.Category)
	f.Search = strings.TrimSpace(f.Search)
	return f, nil
}

// GetProduct returns one product with nutrients and completeness.
// Flow: check cache -> query catalog -> cache -> return
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.ProductDetail, error) {
	if id < 1 {
		return nil, fmt.Errorf("%w: product id must be positive", domain.ErrInvalidRequest)
	}

	key := productCacheKey(id)
	var cached domain.ProductDetail
	if err := cache.GetJSON(ctx, s.cache, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	detail, err := s.reader.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	detail.Completeness = completeness(detail)

	s.setInCache(ctx, key, detail)
	return detail, nil
}

// Stats returns the global catalog figures
func (s *CatalogService) Stats(ctx context.Context) (*domain.CatalogStats, error) {
	var cached domain.CatalogStats
	if err := cache.GetJSON(ctx, s.cache, statsCacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Warn("cache read failed", zap.String("key", statsCacheKey), zap.Error(err))
	}

	stats, err := s.reader.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}

	s.setInCache(ctx, statsCacheKey, stats)
	return stats, nil
}

// InvalidateStats drops the cached stats, e.g. after a load run
func (s *CatalogService) InvalidateStats(ctx context.Context) error {
	return s.cache.Delete(ctx, statsCacheKey)
}

// setInCache stores v, logging instead of failing the request
func (s *CatalogService) setInCache(ctx context.Context, key string, v any) {
	if err := cache.SetJSON(ctx, s.cache, key, v, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func productCacheKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// completeness awards 20 points each for name, brand, categories,
// nutrients and grade
func completeness(d *domain.ProductDetail) int {
	score := 0
	if d.ProductName != "" {
		score += 20
	}
	if d.BrandName != nil && *d.BrandName != "" {
		score += 20
	}
	if len(d.Categories) > 0 {
		score += 20
	}
	if len(d.Nutrients) > 0 {
		score += 20
	}
	if d.NutriscoreGrade != nil && *d.NutriscoreGrade != "" {
		score += 20
	}
	return score
}
