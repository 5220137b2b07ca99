// Package tilecache implements the two-tier tile cache: an in-process
// expirable LRU (L1) in front of an optional shared byte store (L2), with
// single-flight coalescing of concurrent identical misses.
package tilecache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/heatmap-service/internal/domain"
	"github.com/heatmap-service/internal/domain/repository"
)

// BuildFunc computes a tile payload on a full miss.
type BuildFunc[T any] func(ctx context.Context) (T, error)

// Cache is a typed two-tier tile cache. T must round-trip through JSON for
// the L2 tier.
type Cache[T any] struct {
	kind   string
	l1     *expirable.LRU[string, T]
	l2     repository.CacheRepository // nil disables the shared tier
	l2TTL  time.Duration
	group  singleflight.Group
	logger *zap.Logger

	l1Hits      atomic.Int64
	l2Hits      atomic.Int64
	misses      atomic.Int64
	buildErrors atomic.Int64
	inFlight    atomic.Int64

	l1HitMicros  atomic.Int64
	l2HitMicros  atomic.Int64
	buildMicros  atomic.Int64
	l2HitCount   atomic.Int64
	buildCount   atomic.Int64
}

// New creates a tile cache. kind namespaces keys ("heatmap", "property").
func New[T any](kind string, maxEntries int, ttl time.Duration, l2 repository.CacheRepository, logger *zap.Logger) *Cache[T] {
	return &Cache[T]{
		kind:   kind,
		l1:     expirable.NewLRU[string, T](maxEntries, nil, ttl),
		l2:     l2,
		l2TTL:  ttl,
		logger: logger,
	}
}

// Key builds the canonical cache key for a tile + fingerprint pair.
func (c *Cache[T]) Key(t domain.Tile, fingerprint string) string {
	return fmt.Sprintf("%s:%d:%d:%d:%s", c.kind, t.Z, t.X, t.Y, fingerprint)
}

// GetOrBuild returns the cached payload for (tile, fingerprint), consulting
// L1, then L2, then running build under single-flight. Concurrent identical
// misses share one build. Cancellation of every waiter does not cancel the
// build; orphaned builds still populate the cache for the next caller.
func (c *Cache[T]) GetOrBuild(ctx context.Context, t domain.Tile, fingerprint string, build BuildFunc[T]) (T, error) {
	var zero T
	key := c.Key(t, fingerprint)

	start := time.Now()
	if v, ok := c.l1.Get(key); ok {
		c.l1Hits.Add(1)
		c.l1HitMicros.Add(time.Since(start).Microseconds())
		return v, nil
	}
	c.misses.Add(1)

	ch := c.group.DoChan(key, func() (interface{}, error) {
		c.inFlight.Add(1)
		defer c.inFlight.Add(-1)

		// Detach from the caller: the build outlives any individual waiter.
		bctx := context.WithoutCancel(ctx)

		if v, ok := c.lookupL2(bctx, key); ok {
			return v, nil
		}

		buildStart := time.Now()
		v, err := build(bctx)
		if err != nil {
			c.buildErrors.Add(1)
			return nil, err
		}
		c.buildMicros.Add(time.Since(buildStart).Microseconds())
		c.buildCount.Add(1)

		c.l1.Add(key, v)
		c.storeL2(bctx, key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// lookupL2 consults the shared tier. Hits populate L1 on the way back;
// failures degrade silently to a miss.
func (c *Cache[T]) lookupL2(ctx context.Context, key string) (T, bool) {
	var zero T
	if c.l2 == nil {
		return zero, false
	}

	start := time.Now()
	data, err := c.l2.Get(ctx, key)
	if err != nil {
		c.logger.Warn("L2 get failed, degrading to L1-only",
			zap.String("key", key), zap.Error(err))
		return zero, false
	}
	if data == nil {
		return zero, false
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("L2 payload corrupt, discarding",
			zap.String("key", key), zap.Error(err))
		return zero, false
	}

	c.l2Hits.Add(1)
	c.l2HitMicros.Add(time.Since(start).Microseconds())
	c.l2HitCount.Add(1)
	c.l1.Add(key, v)
	return v, true
}

func (c *Cache[T]) storeL2(ctx context.Context, key string, v T) {
	if c.l2 == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("L2 marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.l2.Set(ctx, key, data, c.l2TTL); err != nil {
		c.logger.Warn("L2 set failed, entry stays L1-only",
			zap.String("key", key), zap.Error(err))
	}
}

// Stats returns cache counters for the stats endpoint.
func (c *Cache[T]) Stats() domain.CacheStats {
	stats := domain.CacheStats{
		Kind:        c.kind,
		L1Hits:      c.l1Hits.Load(),
		L2Hits:      c.l2Hits.Load(),
		Misses:      c.misses.Load(),
		InFlight:    c.inFlight.Load(),
		Entries:     c.l1.Len(),
		BuildErrors: c.buildErrors.Load(),
	}
	if hits := stats.L1Hits; hits > 0 {
		stats.AvgL1HitMs = float64(c.l1HitMicros.Load()) / float64(hits) / 1000
	}
	if n := c.l2HitCount.Load(); n > 0 {
		stats.AvgL2HitMs = float64(c.l2HitMicros.Load()) / float64(n) / 1000
	}
	if n := c.buildCount.Load(); n > 0 {
		stats.AvgBuildMs = float64(c.buildMicros.Load()) / float64(n) / 1000
	}
	return stats
}
