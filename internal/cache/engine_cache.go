package cache

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/gamehub/gamehub/internal/config"
	"github.com/gamehub/gamehub/pkg/gamehub"
	gocache "github.com/patrickmn/go-cache"
)

// Cache key prefixes.
const (
	CatalogCachePrefix = "catalog-"
	DetailCachePrefix  = "game-detail-"
)

// EngineCache holds the caches for backend responses that are shared between users.
type EngineCache struct {
	CatalogCache *PrefixedCache[gamehub.GameList]
	DetailCache  *PrefixedCache[gamehub.GameDetail]

	// in-memory stores, redis expires entries on its own
	memoryStores []*gocache.Cache
}

func NewEngineCache(cfg *config.CacheConfig) (*EngineCache, error) {
	e := &EngineCache{}
	e.CatalogCache = NewPrefixedCache[gamehub.GameList](
		e.newCacheInstanceByType(cfg),
		cfg.Type,
		CatalogCachePrefix,
		cfg.CatalogTTL,
	)
	e.DetailCache = NewPrefixedCache[gamehub.GameDetail](
		e.newCacheInstanceByType(cfg),
		cfg.Type,
		DetailCachePrefix,
		cfg.DetailTTL,
	)
	return e, nil
}

func (e *EngineCache) newCacheInstanceByType(cfg *config.CacheConfig) *cache.Cache[any] {
	if cfg.Type == config.CacheTypeRedis {
		return newRedisCache[any](cfg)
	}
	c, client := newMemoryCache[any]()
	e.memoryStores = append(e.memoryStores, client)
	return c
}

// DeleteExpired removes expired entries from the in-memory stores.
func (e *EngineCache) DeleteExpired() int {
	var removed int
	for _, s := range e.memoryStores {
		before := s.ItemCount()
		s.DeleteExpired()
		removed += before - s.ItemCount()
	}
	return removed
}

func (e *EngineCache) ClearAll(ctx context.Context) {
	errs := []error{
		e.CatalogCache.Clear(ctx),
		e.DetailCache.Clear(ctx),
	}
	for _, err := range errs {
		if err != nil {
			log.Errorf("failed to clear cache: %v", err)
		}
	}
}

type Stats struct {
	*codec.Stats
	CacheName string `json:"cacheName"`
}

func (e *EngineCache) GetStats() []*Stats {
	return []*Stats{
		{
			Stats:     e.CatalogCache.GetStats(),
			CacheName: "catalog",
		},
		{
			Stats:     e.DetailCache.GetStats(),
			CacheName: "game-detail",
		},
	}
}
