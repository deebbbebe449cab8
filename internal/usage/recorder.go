// Package usage records analysis events and summarizes them into reports.
package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xeo-app/xeo-backend/internal/models"
	"github.com/xeo-app/xeo-backend/internal/storage"
)

// Event kinds besides the post types.
const (
	KindContext   = "context"
	KindProfile   = "profile"
	KindRewrite   = "rewrite"
	KindApplyTips = "apply_tips"
)

const (
	keyPrefix    = "usage/"
	topHandleMax = 10
	writeTimeout = 10 * time.Second
)

// Event is one recorded request.
type Event struct {
	ID        string    `json:"id"`
	Handle    string    `json:"handle,omitempty"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder keeps events in memory and, when a store is given, persists each
// one under usage/ in the background.
type Recorder struct {
	mu      sync.RWMutex
	events  []Event
	store   storage.StorageInterface
	now     func() time.Time
	pending sync.WaitGroup
}

// NewRecorder creates a Recorder. store may be nil.
func NewRecorder(store storage.StorageInterface, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{store: store, now: now}
}

// Record adds an event and returns without waiting for the store. Persistence
// failures are logged only.
func (r *Recorder) Record(ctx context.Context, handle, kind string) Event {
	e := Event{
		ID:        uuid.NewString(),
		Handle:    strings.ToLower(strings.TrimPrefix(handle, "@")),
		Kind:      kind,
		Timestamp: r.now().UTC(),
	}

	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()

	if r.store != nil {
		r.pending.Add(1)
		go r.persist(context.WithoutCancel(ctx), e)
	}
	return e
}

func (r *Recorder) persist(ctx context.Context, e Event) {
	defer r.pending.Done()

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	data, err := json.Marshal(e)
	if err == nil {
		err = r.store.Store(ctx, eventKey(e), data)
	}
	if err != nil {
		logrus.Warnf("Failed to persist usage event %s: %v", e.ID, err)
	}
}

// Wait blocks until every event recorded so far has been written.
func (r *Recorder) Wait() {
	r.pending.Wait()
}

func eventKey(e Event) string {
	return fmt.Sprintf("%s%s/%s", keyPrefix, e.Timestamp.Format("2006-01-02"), e.ID)
}

// Load restores persisted events, replacing what is in memory.
func (r *Recorder) Load(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	keys, err := r.store.List(ctx, keyPrefix)
	if err != nil {
		return fmt.Errorf("failed to list usage events: %w", err)
	}

	events := make([]Event, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Retrieve(ctx, key)
		if err != nil {
			logrus.Warnf("Skipping usage event %s: %v", key, err)
			continue
		}
		var e Event
		if err := json.Unmarshal(data, &e); err != nil {
			logrus.Warnf("Skipping corrupt usage event %s: %v", key, err)
			continue
		}
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })

	r.mu.Lock()
	r.events = events
	r.mu.Unlock()

	logrus.Infof("Loaded %d usage events", len(events))
	return nil
}

// Prune drops events older than cutoff from memory and the store and returns
// how many were removed.
func (r *Recorder) Prune(ctx context.Context, cutoff time.Time) int {
	r.Wait()

	r.mu.Lock()
	var kept, dropped []Event
	for _, e := range r.events {
		if e.Timestamp.Before(cutoff) {
			dropped = append(dropped, e)
		} else {
			kept = append(kept, e)
		}
	}
	r.events = kept
	r.mu.Unlock()

	if r.store != nil {
		for _, e := range dropped {
			if err := r.store.Delete(ctx, eventKey(e)); err != nil {
				logrus.Warnf("Failed to delete usage event %s: %v", e.ID, err)
			}
		}
	}
	return len(dropped)
}

// Snapshot summarizes events at or after since. period labels the report.
func (r *Recorder) Snapshot(since time.Time, period string) *models.UsageReport {
	report := &models.UsageReport{
		GeneratedAt: r.now().UTC(),
		Period:      period,
		ByType:      map[string]int{},
		TopHandles:  []string{},
	}

	perHandle := map[string]int{}
	r.mu.RLock()
	for _, e := range r.events {
		if e.Timestamp.Before(since) {
			continue
		}
		report.ByType[e.Kind]++
		switch e.Kind {
		case KindContext:
			report.ContextLookups++
		case KindProfile, KindRewrite, KindApplyTips:
		default:
			report.TotalAnalyses++
		}
		if e.Handle != "" {
			perHandle[e.Handle]++
		}
	}
	r.mu.RUnlock()

	report.UniqueHandles = len(perHandle)
	for h := range perHandle {
		report.TopHandles = append(report.TopHandles, h)
	}
	sort.Slice(report.TopHandles, func(i, j int) bool {
		a, b := report.TopHandles[i], report.TopHandles[j]
		if perHandle[a] != perHandle[b] {
			return perHandle[a] > perHandle[b]
		}
		return a < b
	})
	if len(report.TopHandles) > topHandleMax {
		report.TopHandles = report.TopHandles[:topHandleMax]
	}
	return report
}
