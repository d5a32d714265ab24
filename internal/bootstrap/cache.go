package bootstrap

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/visually/visually-api/internal/infrastructure/cache"
	"github.com/visually/visually-api/internal/infrastructure/external/pexels"
	"github.com/visually/visually-api/pkg/config"
)

// Store is a footage-search cache that owns resources
type Store interface {
	pexels.Cache
	io.Closer
}

// FootageCache returns a Redis-backed cache when Redis is enabled and
// reachable, and an in-memory cache otherwise.
func FootageCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) Store {
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg)
		if err == nil {
			if logger != nil {
				logger.Info("📦 Footage cache backed by Redis", zap.String("addr", cfg.GetRedisAddr()))
			}
			return cache.NewRedisStore(client, "visually:")
		}
		if logger != nil {
			logger.Warn("⚠️ Redis unavailable, falling back to in-memory footage cache", zap.Error(err))
		}
	}
	return cache.NewMemoryStore()
}
