package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/xeo-app/xeo-backend/internal/metrics"
)

// Lookup outcomes, also used as metric labels.
const (
	HitLocal  = "local"
	HitShared = "shared"
	Miss      = "miss"
	Bypass    = "bypass"
)

// Tiers reads the local tier first and then the shared tier; writes go to
// both. shared may be nil for a local-only cache.
type Tiers struct {
	local  *Local
	shared *Shared
}

func NewTiers(local *Local, shared *Shared) *Tiers {
	return &Tiers{local: local, shared: shared}
}

// Local exposes the process-local tier.
func (t *Tiers) Local() *Local { return t.local }

// Shared exposes the persistent tier, or nil.
func (t *Tiers) Shared() *Shared { return t.shared }

// Get returns the cached bytes for key and the tier that served them. Shared
// hits are copied into the local tier for the rest of their lifetime.
func (t *Tiers) Get(ctx context.Context, key string) ([]byte, string) {
	if data, ok := t.local.Get(key); ok {
		return data, HitLocal
	}
	if t.shared == nil {
		return nil, Miss
	}

	data, expires, ok, err := t.shared.Get(ctx, key)
	if err != nil {
		logrus.Warnf("Shared cache read failed for %s: %v", key, err)
		return nil, Miss
	}
	if !ok {
		return nil, Miss
	}
	t.local.setUntil(key, data, expires)
	return data, HitShared
}

// Set writes data to both tiers. A shared-tier failure is logged, not returned.
func (t *Tiers) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	t.local.Set(key, data, ttl)
	if t.shared == nil {
		return
	}
	if err := t.shared.Set(ctx, key, data, ttl); err != nil {
		logrus.Warnf("Shared cache write failed for %s: %v", key, err)
	}
}

// Typed is a cache for one record kind, with its own key prefix and TTL.
type Typed[T any] struct {
	tiers *Tiers
	kind  string
	ttl   time.Duration
	group singleflight.Group
}

func NewTyped[T any](tiers *Tiers, kind string, ttl time.Duration) *Typed[T] {
	return &Typed[T]{tiers: tiers, kind: kind, ttl: ttl}
}

// Kind names the record type held by this cache.
func (c *Typed[T]) Kind() string { return c.kind }

func (c *Typed[T]) key(k string) string {
	return c.kind + "/" + k
}

// Get returns the cached value for k.
func (c *Typed[T]) Get(ctx context.Context, k string) (T, bool) {
	v, tier := c.lookup(ctx, k)
	return v, tier != Miss
}

func (c *Typed[T]) lookup(ctx context.Context, k string) (T, string) {
	var zero T
	data, tier := c.tiers.Get(ctx, c.key(k))
	if tier == Miss {
		return zero, Miss
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		logrus.Warnf("Discarding undecodable %s cache entry %s: %v", c.kind, k, err)
		c.tiers.local.Delete(c.key(k))
		return zero, Miss
	}
	return v, tier
}

// Set stores v under k in both tiers.
func (c *Typed[T]) Set(ctx context.Context, k string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s cache entry: %w", c.kind, err)
	}
	c.tiers.Set(ctx, c.key(k), data, c.ttl)
	return nil
}

// GetOrFetch returns the cached value for k or calls fetch and caches its
// result. bypass skips both read tiers but still writes the fresh value.
// Concurrent callers for the same cold key share one fetch. The fetch is not
// cancelled when a caller gives up; its result still lands in the cache.
func (c *Typed[T]) GetOrFetch(ctx context.Context, k string, bypass bool, fetch func(context.Context) (T, error)) (T, error) {
	if bypass {
		metrics.IncCacheLookup(c.kind, Bypass)
	} else {
		v, tier := c.lookup(ctx, k)
		metrics.IncCacheLookup(c.kind, tier)
		if tier != Miss {
			return v, nil
		}
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(c.key(k), func() (any, error) {
		v, err := fetch(fetchCtx)
		if err != nil {
			return v, err
		}
		if err := c.Set(fetchCtx, k, v); err != nil {
			logrus.Warnf("Not caching %s %s: %v", c.kind, k, err)
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	}
}

// Invalidate drops k from the local tier.
func (c *Typed[T]) Invalidate(k string) {
	c.tiers.local.Delete(c.key(k))
}
