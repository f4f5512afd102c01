package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
)

var _ domain.OutcomeStore = (*OutcomeStore)(nil)

// OutcomeStore keeps one enrichment outcome per raw id
type OutcomeStore struct {
	db     *pebble.DB
	logger *zap.Logger
}

// Put writes an outcome, replacing the previous one for the same raw id.
// A single Set is atomic, so concurrent puts for one id never interleave.
func (s *OutcomeStore) Put(ctx context.Context, o domain.Outcome) error {
	if o.RawID == "" {
		return fmt.Errorf("%w: outcome needs a raw id", domain.ErrInvalidRecord)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	if err := s.db.Set([]byte(outcomePrefix+o.RawID), data, pebble.Sync); err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}

	s.logger.Debug("outcome stored", zap.String("raw_id", o.RawID), zap.String("status", string(o.Status)))
	return nil
}

// Get returns the outcome stored for rawID
func (s *OutcomeStore) Get(ctx context.Context, rawID string) (*domain.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, closer, err := s.db.Get([]byte(outcomePrefix + rawID))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, domain.ErrOutcomeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read outcome: %w", err)
	}
	defer closer.Close()

	var o domain.Outcome
	if err := json.Unmarshal(value, &o); err != nil {
		return nil, fmt.Errorf("decode outcome: %w", err)
	}
	return &o, nil
}

// IDs returns the set of raw ids that have an outcome
func (s *OutcomeStore) IDs(ctx context.Context) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	err := scanPrefix(ctx, s.db, outcomePrefix, func(key string, _ []byte) (bool, error) {
		ids[key[len(outcomePrefix):]] = struct{}{}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Scan walks outcomes in raw id order, optionally filtered by status
func (s *OutcomeStore) Scan(ctx context.Context, status domain.OutcomeStatus, limit int, fn func(domain.Outcome) error) error {
	seen := 0
	return scanPrefix(ctx, s.db, outcomePrefix, func(_ string, value []byte) (bool, error) {
		var o domain.Outcome
		if err := json.Unmarshal(value, &o); err != nil {
			return false, fmt.Errorf("decode outcome: %w", err)
		}
		if status != "" && o.Status != status {
			return true, nil
		}
		if err := fn(o); err != nil {
			return false, err
		}
		seen++
		return limit <= 0 || seen < limit, nil
	})
}

// Stats counts outcomes by status
func (s *OutcomeStore) Stats(ctx context.Context) (domain.OutcomeStats, error) {
	var stats domain.OutcomeStats
	err := s.Scan(ctx, "", 0, func(o domain.Outcome) error {
		stats.Total++
		switch o.Status {
		case domain.OutcomeSuccess:
			stats.Success++
		case domain.OutcomeFailed:
			stats.Failed++
		}
		return nil
	})
	return stats, err
}
