package cache

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
)

// Store is a cache that holds resources until closed
type Store interface {
	domain.CacheRepository
	io.Closer
}

// New opens the cache named by kind: "memory" or "redis"
func New(ctx context.Context, kind, redisURL, prefix string, logger *zap.Logger) (Store, error) {
	switch kind {
	case "memory", "":
		return NewMemoryCache(0), nil
	case "redis":
		c, err := NewRedisCache(ctx, redisURL, prefix, logger.Named("cache"))
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown cache type %q", kind)
}
