// Package cache implements the two-tier read-through cache that sits in
// front of the upstream data providers.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xeo-app/xeo-backend/internal/metrics"
)

// Clock returns the current time. Tests inject a fake.
type Clock func() time.Time

type localEntry struct {
	data    []byte
	expires time.Time
}

// Local is the process-local tier: a TTL map guarded by a mutex.
type Local struct {
	mu    sync.RWMutex
	items map[string]localEntry
	now   Clock
}

func NewLocal(now Clock) *Local {
	if now == nil {
		now = time.Now
	}
	return &Local{items: make(map[string]localEntry), now: now}
}

// Get returns the value for key unless it is missing or expired.
func (l *Local) Get(key string) ([]byte, bool) {
	l.mu.RLock()
	e, ok := l.items[key]
	l.mu.RUnlock()
	if !ok || !l.now().Before(e.expires) {
		return nil, false
	}
	return e.data, true
}

// Set stores data under key until ttl elapses.
func (l *Local) Set(key string, data []byte, ttl time.Duration) {
	l.setUntil(key, data, l.now().Add(ttl))
}

func (l *Local) setUntil(key string, data []byte, expires time.Time) {
	l.mu.Lock()
	l.items[key] = localEntry{data: data, expires: expires}
	l.mu.Unlock()
}

// Delete drops key from the tier.
func (l *Local) Delete(key string) {
	l.mu.Lock()
	delete(l.items, key)
	l.mu.Unlock()
}

// Len counts stored entries, expired or not.
func (l *Local) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Sweep removes expired entries and returns how many were dropped.
func (l *Local) Sweep() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for k, e := range l.items {
		if !now.Before(e.expires) {
			delete(l.items, k)
			removed++
		}
	}
	if removed > 0 {
		metrics.CacheEvictions.WithLabelValues("local").Add(float64(removed))
	}
	return removed
}

// RunSweeper sweeps every interval until ctx is done.
func (l *Local) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				logrus.Debugf("Swept %d expired local cache entries", n)
			}
		}
	}
}
