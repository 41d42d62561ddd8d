package replication

import (
	"context"
	"strconv"
	"time"

	"github.com/zjrosen/svcreg/internal/cachemanager"
	"github.com/zjrosen/svcreg/internal/log"
	"github.com/zjrosen/svcreg/internal/service"
)

// CacheStrategy reconciles against an in-memory TTL cache. Entries the
// cache knows about but the local index lost (an external process
// removed or truncated a file) are reinstated on load.
type CacheStrategy struct {
	cache cachemanager.CacheManager[string, service.Definition]
	ttl   time.Duration
}

var _ Strategy = (*CacheStrategy)(nil)

// NewCacheStrategy creates a cache-backed strategy with the given TTL.
func NewCacheStrategy(cache cachemanager.CacheManager[string, service.Definition], ttl time.Duration) *CacheStrategy {
	return &CacheStrategy{cache: cache, ttl: ttl}
}

func (s *CacheStrategy) ReconcileBatch(loaded []service.Definition, reg Updater) []service.Definition {
	ctx := context.Background()

	seen := make(map[int64]struct{}, len(loaded))
	for _, def := range loaded {
		seen[def.ID()] = struct{}{}
		s.cache.Set(ctx, idKey(def.ID()), def, s.ttl)
	}

	results := loaded
	for _, key := range s.cache.Keys(ctx) {
		cached, ok := s.cache.Get(ctx, key)
		if !ok {
			continue
		}
		if _, present := seen[cached.ID()]; present {
			continue
		}
		seen[cached.ID()] = struct{}{}
		log.Debug(log.CatReplication, "reinstating cached definition", "id", cached.ID(), "name", cached.Name())
		reg.Update(cached)
		results = append(results, cached)
	}
	return results
}

func (s *CacheStrategy) ReconcileLookup(local service.Definition, key string, reg Updater) service.Definition {
	ctx := context.Background()

	if local != nil {
		s.cache.Set(ctx, key, local, s.ttl)
		s.cache.Set(ctx, idKey(local.ID()), local, s.ttl)
		return local
	}

	cached, ok := s.cache.GetWithRefresh(ctx, key, s.ttl)
	if !ok {
		return nil
	}
	log.Debug(log.CatReplication, "serving definition from cache", "key", key)
	reg.Update(cached)
	return cached
}

func idKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
