// Package poicache implements the POI store adapter: a tile-aligned,
// TTL-bounded read-through cache in front of the Postgres repository.
// Concurrent overlapping fetches for the same tile are coalesced so the
// store sees each (tag set, tile) query at most once at a time.
package poicache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/domain/repository"
	"github.com/heatmap-service/internal/pkg/geo"
)

// maxCachedTiles bounds the in-process POI cache. At zoom 13 this covers a
// metro area several times over.
const maxCachedTiles = 4096

// Store is the POI store adapter. It satisfies repository.POIRepository so
// tile builders can run against either the adapter or the raw store.
type Store struct {
	repo     repository.POIRepository
	logger   *zap.Logger
	tileZoom int

	cache *expirable.LRU[string, []domain.POI]
	group singleflight.Group

	hits        atomic.Int64
	misses      atomic.Int64
	coalesced   atomic.Int64
	storeErrors atomic.Int64
}

// New creates the adapter. ttl bounds POI staleness (stale reads during the
// window are acceptable; POI sync runs out-of-band).
func New(repo repository.POIRepository, tileZoom int, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{
		repo:     repo,
		logger:   logger,
		tileZoom: tileZoom,
		cache:    expirable.NewLRU[string, []domain.POI](maxCachedTiles, nil, ttl),
	}
}

// FetchPOIs returns the POIs matching one factor's tag set intersecting
// bounds, assembled from tile-aligned cache entries. A fetch failure for
// any uncached tile fails the whole call: serving a factor from partial
// data would silently bias scores.
func (s *Store) FetchPOIs(ctx context.Context, factorTags []string, bounds domain.Bounds) ([]domain.POI, error) {
	tiles := geo.BoundsToTiles(bounds, s.tileZoom)
	tagKey := sortedTagKey(factorTags)

	var out []domain.POI
	for _, t := range tiles {
		pois, err := s.fetchTile(ctx, tagKey, factorTags, t)
		if err != nil {
			return nil, err
		}
		out = append(out, pois...)
	}
	return out, nil
}

// sortedTagKey canonicalizes a tag set so cache entries are shared across
// permutations of the same tags.
func sortedTagKey(tags []string) string {
	sorted := make([]string, len(tags))
	copy(sorted, tags)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func (s *Store) fetchTile(ctx context.Context, tagKey string, factorTags []string, t domain.Tile) ([]domain.POI, error) {
	key := fmt.Sprintf("poi:%s:%s", tagKey, t)

	if pois, ok := s.cache.Get(key); ok {
		s.hits.Add(1)
		return pois, nil
	}
	s.misses.Add(1)

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		pois, err := s.repo.FetchPOIs(ctx, factorTags, geo.TileToBounds(t))
		if err != nil {
			s.storeErrors.Add(1)
			return nil, err
		}
		s.cache.Add(key, pois)
		return pois, nil
	})
	if shared {
		s.coalesced.Add(1)
	}
	if err != nil {
		s.logger.Error("poi tile fetch failed",
			zap.String("factor_tags", tagKey),
			zap.String("tile", t.String()),
			zap.Error(err))
		return nil, fmt.Errorf("fetch poi tile %s for tags %s: %w", t, tagKey, err)
	}

	return v.([]domain.POI), nil
}

// Health delegates to the underlying store.
func (s *Store) Health(ctx context.Context) error {
	return s.repo.Health(ctx)
}

// Stats returns adapter counters for the stats endpoint.
func (s *Store) Stats() domain.POIStoreStats {
	poisCached := 0
	for _, key := range s.cache.Keys() {
		if pois, ok := s.cache.Peek(key); ok {
			poisCached += len(pois)
		}
	}
	return domain.POIStoreStats{
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		Coalesced:   s.coalesced.Load(),
		Entries:     s.cache.Len(),
		POIsCached:  poisCached,
		StoreErrors: s.storeErrors.Load(),
	}
}
