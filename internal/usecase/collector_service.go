package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
	"github.com/foodlens/backend/internal/enrichment"
	"github.com/foodlens/backend/internal/infrastructure/metrics"
)

// CollectOptions bounds one collection run
type CollectOptions struct {
	Total    int
	PageSize int
}

// CollectorServiceConfig holds the collector's error policy
type CollectorServiceConfig struct {
	// MaxErrors is the number of failed page fetches tolerated; one more stops the run
	MaxErrors int
	// ErrorPause is the wait after a failed page fetch
	ErrorPause time.Duration
}

// CollectorService pulls product pages from the source and stores each
// product verbatim as a raw record
type CollectorService struct {
	source     domain.ProductSource
	raw        domain.RawStore
	maxErrors  int
	errorPause time.Duration
	newID      func() string
	now        func() time.Time
	logger     *zap.Logger
}

// NewCollectorService creates a collector
func NewCollectorService(source domain.ProductSource, raw domain.RawStore, config CollectorServiceConfig, logger *zap.Logger) *CollectorService {
	maxErrors := config.MaxErrors
	if maxErrors <= 0 {
		maxErrors = 5
	}
	errorPause := config.ErrorPause
	if errorPause <= 0 {
		errorPause = 2 * time.Second
	}

	return &CollectorService{
		source:     source,
		raw:        raw,
		maxErrors:  maxErrors,
		errorPause: errorPause,
		newID:      newRawID,
		now:        time.Now,
		logger:     logger.Named("collector"),
	}
}

// newRawID returns a time-ordered id so raw scans follow insertion order
func newRawID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Collect fetches pages until Total new records are stored, a page comes
// back empty, or more than MaxErrors fetches have failed
func (s *CollectorService) Collect(ctx context.Context, opts CollectOptions) (domain.CollectStats, error) {
	var stats domain.CollectStats
	if opts.Total <= 0 || opts.PageSize <= 0 {
		return stats, fmt.Errorf("%w: total %d, page size %d", domain.ErrInvalidRequest, opts.Total, opts.PageSize)
	}

	s.logger.Info("collection started", zap.Int("total", opts.Total), zap.Int("page_size", opts.PageSize))

	page := 1
	for stats.Collected < opts.Total {
		products, err := s.source.FetchPage(ctx, page, opts.PageSize)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Errors++
			s.logger.Warn("page fetch failed", zap.Int("page", page), zap.Int("errors", stats.Errors), zap.Error(err))
			if stats.Errors > s.maxErrors {
				s.logger.Error("too many errors, stopping collection")
				break
			}
			if err := pause(ctx, s.errorPause); err != nil {
				return stats, err
			}
			continue
		}

		if len(products) == 0 {
			s.logger.Info("empty page, stopping collection", zap.Int("page", page))
			break
		}

		for _, product := range products {
			if stats.Collected >= opts.Total {
				break
			}

			stored, err := s.save(ctx, product)
			if err != nil {
				return stats, err
			}
			if !stored {
				stats.Duplicates++
				continue
			}

			stats.Collected++
			if stats.Collected%progressEvery == 0 {
				s.logger.Info("collection progress", zap.Int("collected", stats.Collected), zap.Int("total", opts.Total))
			}
		}

		page++
	}

	s.logger.Info("collection finished",
		zap.Int("collected", stats.Collected),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("errors", stats.Errors),
	)
	return stats, nil
}

// save stores one product and reports whether it was new
func (s *CollectorService) save(ctx context.Context, product domain.RawPayload) (bool, error) {
	payload, err := json.Marshal(product)
	if err != nil {
		return false, fmt.Errorf("encode product: %w", err)
	}

	rec := domain.RawRecord{
		ID:        s.newID(),
		Source:    domain.SourceOpenFoodFacts,
		FetchedAt: s.now().UTC(),
		Hash:      enrichment.Fingerprint(product),
		Payload:   payload,
	}

	err = s.raw.Insert(ctx, rec)
	if errors.Is(err, domain.ErrDuplicateRecord) {
		metrics.CollectedRecords.WithLabelValues(metrics.ResultDuplicate).Inc()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store raw record: %w", err)
	}

	metrics.CollectedRecords.WithLabelValues(metrics.ResultStored).Inc()
	return true, nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
