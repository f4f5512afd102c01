package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ProductSource fetches raw product pages from the upstream database
type ProductSource interface {
	FetchPage(ctx context.Context, page, pageSize int) ([]RawPayload, error)
}

// RawStore persists raw records verbatim, deduplicated by fingerprint
type RawStore interface {
	// Insert stores rec. It returns ErrDuplicateRecord if rec.Hash is already stored.
	Insert(ctx context.Context, rec RawRecord) error
	// Scan calls fn for each raw record in insertion order, stopping after
	// limit records when limit > 0.
	Scan(ctx context.Context, limit int, fn func(RawRecord) error) error
	Count(ctx context.Context) (int, error)
}

// OutcomeStore holds at most one enrichment outcome per raw id
type OutcomeStore interface {
	// Put stores o, replacing any previous outcome for o.RawID.
	Put(ctx context.Context, o Outcome) error
	Get(ctx context.Context, rawID string) (*Outcome, error)
	IDs(ctx context.Context) (map[string]struct{}, error)
	// Scan calls fn for each outcome with the given status ("" for all),
	// stopping after limit outcomes when limit > 0.
	Scan(ctx context.Context, status OutcomeStatus, limit int, fn func(Outcome) error) error
	Stats(ctx context.Context) (OutcomeStats, error)
}

// CatalogWriter opens load transactions against the relational store
type CatalogWriter interface {
	BeginLoad(ctx context.Context) (LoadTx, error)
}

// LoadTx writes one enriched product and its relations atomically
type LoadTx interface {
	ProductExists(ctx context.Context, rawID string) (bool, error)
	FindBrand(ctx context.Context, name string) (int64, bool, error)
	CreateBrand(ctx context.Context, name string) (int64, error)
	FindCategory(ctx context.Context, name string) (int64, bool, error)
	CreateCategory(ctx context.Context, name string) (int64, error)
	InsertProduct(ctx context.Context, row ProductRow) (int64, error)
	LinkCategory(ctx context.Context, productID, categoryID int64) error
	InsertNutrient(ctx context.Context, productID int64, name string, n Nutrient) error
	InsertAllergen(ctx context.Context, productID int64, name string) error
	Commit() error
	Rollback() error
}

// CatalogReader serves the query API from the relational store
type CatalogReader interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]ProductSummary, int, error)
	GetProduct(ctx context.Context, id int64) (*ProductDetail, error)
	Stats(ctx context.Context) (*CatalogStats, error)
}
