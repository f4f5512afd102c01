// Package docstore keeps raw product records and their enrichment outcomes
// in a Pebble key-value database.
//
// Layout:
//
//	raw/<id>         RawRecord JSON, ids are time ordered
//	rawhash/<sha>    id of the raw record with that fingerprint
//	outcome/<rawid>  Outcome JSON, one per raw id
package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"go.uber.org/zap"
)

const (
	rawPrefix     = "raw/"
	rawHashPrefix = "rawhash/"
	outcomePrefix = "outcome/"
)

// DB owns the Pebble handle shared by the raw and outcome stores
type DB struct {
	db       *pebble.DB
	raw      *RawStore
	outcomes *OutcomeStore
}

// Open opens (or creates) the database in dir
func Open(dir string, logger *zap.Logger) (*DB, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	logger.Info("document store opened", zap.String("path", dir))
	return newDB(db, logger), nil
}

// OpenInMemory opens a database backed by an in-memory filesystem
func OpenInMemory(logger *zap.Logger) (*DB, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, fmt.Errorf("open in-memory pebble: %w", err)
	}
	return newDB(db, logger), nil
}

func newDB(db *pebble.DB, logger *zap.Logger) *DB {
	return &DB{
		db:       db,
		raw:      &RawStore{db: db, logger: logger},
		outcomes: &OutcomeStore{db: db, logger: logger},
	}
}

// Raw returns the raw record store
func (d *DB) Raw() *RawStore {
	return d.raw
}

// Outcomes returns the enrichment outcome store
func (d *DB) Outcomes() *OutcomeStore {
	return d.outcomes
}

// Close releases the underlying database
func (d *DB) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("close pebble: %w", err)
	}
	return nil
}

func has(db *pebble.DB, key []byte) (bool, error) {
	_, closer, err := db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	closer.Close()
	return true, nil
}

// scanPrefix iterates keys under prefix until fn returns false or an error.
// The value slice is only valid during the call.
func scanPrefix(ctx context.Context, db *pebble.DB, prefix string, fn func(key string, value []byte) (bool, error)) error {
	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: prefixEnd([]byte(prefix)),
	})
	if err != nil {
		return fmt.Errorf("open iterator: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := fn(string(iter.Key()), iter.Value())
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return iter.Error()
}

// prefixEnd returns the smallest key greater than every key with prefix
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
