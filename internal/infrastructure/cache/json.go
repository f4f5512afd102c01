package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/foodlens/backend/internal/domain"
)

// GetJSON reads key from c and decodes it into dst. A value that no longer
// decodes is reported as a miss.
func GetJSON(ctx context.Context, c domain.CacheRepository, key string, dst any) error {
	data, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: decode %s: %v", domain.ErrCacheMiss, key, err)
	}
	return nil
}

// SetJSON encodes v and stores it under key
func SetJSON(ctx context.Context, c domain.CacheRepository, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(ctx, key, data, ttl)
}
