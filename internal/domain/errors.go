package domain

import "errors"

var (
	// ErrProductNotFound is returned when a product does not exist in the catalog
	ErrProductNotFound = errors.New("product not found")

	// ErrOutcomeNotFound is returned when no enrichment outcome exists for a raw id
	ErrOutcomeNotFound = errors.New("enrichment outcome not found")

	// ErrDuplicateRecord is returned when a raw record with the same fingerprint is already stored
	ErrDuplicateRecord = errors.New("duplicate raw record")

	// ErrInvalidRecord is returned when a stored record cannot be used as input
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrSourceUnavailable is returned when the upstream product source request fails
	ErrSourceUnavailable = errors.New("product source request failed")

	// ErrSourceNotFound is returned when the upstream product source answers 404
	ErrSourceNotFound = errors.New("product source resource not found")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
