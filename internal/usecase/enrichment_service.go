package usecase

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/foodlens/backend/internal/domain"
	"github.com/foodlens/backend/internal/enrichment"
	"github.com/foodlens/backend/internal/infrastructure/metrics"
)

const progressEvery = 50

// EnrichFunc turns one raw payload into an enriched record
type EnrichFunc func(domain.RawPayload) domain.EnrichedRecord

// EnrichOptions bounds one batch run. Limit caps the number of raw records
// scanned (skipped ones included); Workers > 1 enriches concurrently.
type EnrichOptions struct {
	Limit   int
	Workers int
}

// EnrichmentService runs the enrichment core over every raw record that has
// no outcome yet and stores one outcome per raw id
type EnrichmentService struct {
	raw      domain.RawStore
	outcomes domain.OutcomeStore
	enrich   EnrichFunc
	now      func() time.Time
	logger   *zap.Logger
}

// NewEnrichmentService creates a batch enrichment service
func NewEnrichmentService(raw domain.RawStore, outcomes domain.OutcomeStore, logger *zap.Logger) *EnrichmentService {
	return &EnrichmentService{
		raw:      raw,
		outcomes: outcomes,
		enrich:   enrichment.Enrich,
		now:      time.Now,
		logger:   logger.Named("enrichment"),
	}
}

type enrichCounters struct {
	success atomic.Int64
	failed  atomic.Int64
	skipped atomic.Int64

	// processed counts stored outcomes and drives progress logging
	processed atomic.Int64
}

func (c *enrichCounters) stats() domain.EnrichStats {
	return domain.EnrichStats{
		Success: int(c.success.Load()),
		Failed:  int(c.failed.Load()),
		Skipped: int(c.skipped.Load()),
	}
}

// EnrichAll enriches pending raw records. Per-record failures are stored as
// failed outcomes; store errors abort the run and are returned together with
// the counts reached so far.
func (s *EnrichmentService) EnrichAll(ctx context.Context, opts EnrichOptions) (domain.EnrichStats, error) {
	known, err := s.outcomes.IDs(ctx)
	if err != nil {
		return domain.EnrichStats{}, fmt.Errorf("load enriched ids: %w", err)
	}

	s.logger.Info("enrichment started",
		zap.Int("already_enriched", len(known)),
		zap.Int("limit", opts.Limit),
		zap.Int("workers", max(opts.Workers, 1)),
	)

	var counters enrichCounters
	if opts.Workers > 1 {
		err = s.enrichConcurrently(ctx, opts, known, &counters)
	} else {
		err = s.raw.Scan(ctx, opts.Limit, func(rec domain.RawRecord) error {
			return s.process(ctx, rec, known, &counters)
		})
	}

	stats := counters.stats()
	if err != nil {
		s.logger.Error("enrichment aborted", zap.Any("stats", stats), zap.Error(err))
		return stats, fmt.Errorf("enrich raw records: %w", err)
	}

	s.logger.Info("enrichment finished",
		zap.Int("success", stats.Success),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

func (s *EnrichmentService) enrichConcurrently(ctx context.Context, opts EnrichOptions, known map[string]struct{}, counters *enrichCounters) error {
	g, gctx := errgroup.WithContext(ctx)
	records := make(chan domain.RawRecord)

	g.Go(func() error {
		defer close(records)
		return s.raw.Scan(gctx, opts.Limit, func(rec domain.RawRecord) error {
			select {
			case records <- rec:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	for i := 0; i < opts.Workers; i++ {
		g.Go(func() error {
			for rec := range records {
				if err := s.process(gctx, rec, known, counters); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// process handles one raw record. Only store errors are returned.
func (s *EnrichmentService) process(ctx context.Context, rec domain.RawRecord, known map[string]struct{}, counters *enrichCounters) error {
	if _, ok := known[rec.ID]; ok {
		counters.skipped.Add(1)
		metrics.EnrichmentOutcomes.WithLabelValues("skipped").Inc()
		return nil
	}

	var outcome domain.Outcome
	data, err := s.compose(rec)
	if err != nil {
		s.logger.Warn("enrichment failed", zap.String("raw_id", rec.ID), zap.Error(err))
		outcome = domain.NewFailedOutcome(rec.ID, err.Error(), s.now())
	} else {
		outcome = domain.NewSuccessOutcome(rec.ID, data, s.now())
	}

	if err := s.outcomes.Put(ctx, outcome); err != nil {
		return fmt.Errorf("store outcome for %s: %w", rec.ID, err)
	}
	metrics.EnrichmentOutcomes.WithLabelValues(string(outcome.Status)).Inc()

	if outcome.Status == domain.OutcomeSuccess {
		counters.success.Add(1)
	} else {
		counters.failed.Add(1)
	}
	if done := counters.processed.Add(1); done%progressEvery == 0 {
		s.logger.Info("enrichment progress", zap.Int64("processed", done))
	}
	return nil
}

// compose decodes the stored payload and runs the enricher. A panic inside
// the enricher is reported as an error for this record only.
func (s *EnrichmentService) compose(rec domain.RawRecord) (data domain.EnrichedRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("enrichment panicked: %v", r)
		}
	}()

	payload, err := rec.DecodePayload()
	if err != nil {
		return domain.EnrichedRecord{}, err
	}
	return s.enrich(payload), nil
}

// OutcomeStats summarizes the outcome store
func (s *EnrichmentService) OutcomeStats(ctx context.Context) (domain.OutcomeStats, error) {
	stats, err := s.outcomes.Stats(ctx)
	if err != nil {
		return domain.OutcomeStats{}, fmt.Errorf("outcome stats: %w", err)
	}
	return stats, nil
}
