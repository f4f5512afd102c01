package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
)

var _ domain.RawStore = (*RawStore)(nil)

// RawStore keeps raw records verbatim, deduplicated by fingerprint
type RawStore struct {
	db     *pebble.DB
	logger *zap.Logger

	// mu makes the fingerprint lookup and the write one step
	mu sync.Mutex
}

// Insert stores a raw record unless its fingerprint is already known
func (s *RawStore) Insert(ctx context.Context, rec domain.RawRecord) error {
	if rec.ID == "" || rec.Hash == "" {
		return fmt.Errorf("%w: raw record needs an id and a hash", domain.ErrInvalidRecord)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode raw record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hashKey := []byte(rawHashPrefix + rec.Hash)
	found, err := has(s.db, hashKey)
	if err != nil {
		return fmt.Errorf("lookup raw hash: %w", err)
	}
	if found {
		return domain.ErrDuplicateRecord
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.Set([]byte(rawPrefix+rec.ID), data, nil); err != nil {
		return fmt.Errorf("stage raw record: %w", err)
	}
	if err := batch.Set(hashKey, []byte(rec.ID), nil); err != nil {
		return fmt.Errorf("stage raw hash: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit raw record: %w", err)
	}

	s.logger.Debug("raw record stored", zap.String("raw_id", rec.ID), zap.String("raw_hash", rec.Hash))
	return nil
}

// Scan walks raw records in insertion order
func (s *RawStore) Scan(ctx context.Context, limit int, fn func(domain.RawRecord) error) error {
	seen := 0
	return scanPrefix(ctx, s.db, rawPrefix, func(_ string, value []byte) (bool, error) {
		var rec domain.RawRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return false, fmt.Errorf("decode raw record: %w", err)
		}
		if err := fn(rec); err != nil {
			return false, err
		}
		seen++
		return limit <= 0 || seen < limit, nil
	})
}

// Count returns the number of stored raw records
func (s *RawStore) Count(ctx context.Context) (int, error) {
	n := 0
	err := scanPrefix(ctx, s.db, rawPrefix, func(string, []byte) (bool, error) {
		n++
		return true, nil
	})
	return n, err
}
