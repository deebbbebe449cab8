package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xeo-app/xeo-backend/internal/metrics"
	"github.com/xeo-app/xeo-backend/internal/storage"
)

// keyPrefix namespaces cache objects inside a storage backend shared with
// other records.
const keyPrefix = "cache/"

// envelope is the persisted form of a shared entry.
type envelope struct {
	ExpiresAt time.Time       `json:"expires_at"`
	Value     json.RawMessage `json:"value"`
}

// Shared is the persistent tier, layered over any StorageInterface.
type Shared struct {
	store storage.StorageInterface
	now   Clock
}

func NewShared(store storage.StorageInterface, now Clock) *Shared {
	if now == nil {
		now = time.Now
	}
	return &Shared{store: store, now: now}
}

// Get returns the value and its expiry. A missing or expired entry is a miss,
// not an error.
func (s *Shared) Get(ctx context.Context, key string) ([]byte, time.Time, bool, error) {
	raw, err := s.store.Retrieve(ctx, keyPrefix+key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	if !s.now().Before(env.ExpiresAt) {
		return nil, time.Time{}, false, nil
	}
	return env.Value, env.ExpiresAt, true, nil
}

// Set persists data under key with the given ttl. data must be valid JSON.
func (s *Shared) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	raw, err := json.Marshal(envelope{ExpiresAt: s.now().Add(ttl).UTC(), Value: data})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	return s.store.Store(ctx, keyPrefix+key, raw)
}

// Cleanup deletes expired or unreadable entries and reports the count per
// record kind (the key segment before the first '/').
func (s *Shared) Cleanup(ctx context.Context) (map[string]int, error) {
	keys, err := s.store.List(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}

	deleted := map[string]int{}
	for _, key := range keys {
		if ctx.Err() != nil {
			return deleted, ctx.Err()
		}

		raw, err := s.store.Retrieve(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			logrus.Warnf("Skipping cache entry %s during cleanup: %v", key, err)
			continue
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err == nil && s.now().Before(env.ExpiresAt) {
			continue
		}

		if err := s.store.Delete(ctx, key); err != nil {
			logrus.Errorf("Failed to delete expired cache entry %s: %v", key, err)
			continue
		}
		kind, _, _ := strings.Cut(strings.TrimPrefix(key, keyPrefix), "/")
		deleted[kind]++
	}

	total := 0
	for _, n := range deleted {
		total += n
	}
	metrics.CacheEvictions.WithLabelValues("shared").Add(float64(total))
	return deleted, nil
}
