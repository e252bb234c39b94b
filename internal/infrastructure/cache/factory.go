package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/barcodelens/backend/config"
	"github.com/barcodelens/backend/internal/domain"
)

// New builds the product cache selected by cfg.Type.
// It returns a nil cache when caching is disabled.
func New(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (domain.ProductCache, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	switch cfg.Type {
	case config.CacheTypeSQLite:
		store, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.CacheTypeMemory:
		return NewMemoryStore(), nil
	case config.CacheTypeRedis:
		store, err := NewRedisStore(ctx, cfg.RedisURL, cfg.KeyPrefix, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}
