package usage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xeo-app/xeo-backend/internal/storage"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func TestRecorder_Snapshot(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRecorder(nil, c.Now)

	r.Record(ctx, "old", "original")
	c.now = c.now.Add(2 * time.Hour)
	since := c.now.Add(-time.Hour)

	r.Record(ctx, "@Alice", "original")
	r.Record(ctx, "alice", "reply")
	r.Record(ctx, "bob", "quote")
	r.Record(ctx, "", KindContext)
	r.Record(ctx, "bob", KindProfile)
	e := r.Record(ctx, "carol", KindRewrite)

	_, err := uuid.Parse(e.ID)
	assert.NoError(t, err)

	rep := r.Snapshot(since, "daily")
	assert.Equal(t, "daily", rep.Period)
	assert.Equal(t, 3, rep.TotalAnalyses)
	assert.Equal(t, 1, rep.ContextLookups)
	assert.Equal(t, map[string]int{"original": 1, "reply": 1, "quote": 1, KindContext: 1, KindProfile: 1, KindRewrite: 1}, rep.ByType)
	assert.Equal(t, 3, rep.UniqueHandles)
	assert.Equal(t, []string{"alice", "bob", "carol"}, rep.TopHandles)
}

func TestRecorder_PersistLoadPrune(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	defer store.Close()

	c := &clock{now: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
	r := NewRecorder(store, c.Now)
	r.Record(ctx, "alice", "original")
	c.now = c.now.Add(48 * time.Hour)
	r.Record(ctx, "bob", "reply")
	r.Wait()

	restored := NewRecorder(store, c.Now)
	require.NoError(t, restored.Load(ctx))
	assert.Equal(t, 2, restored.Snapshot(time.Time{}, "all").TotalAnalyses)

	assert.Equal(t, 1, restored.Prune(ctx, c.now.Add(-24*time.Hour)))
	keys, err := store.List(ctx, keyPrefix)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	again := NewRecorder(store, c.Now)
	require.NoError(t, again.Load(ctx))
	assert.Equal(t, []string{"bob"}, again.Snapshot(time.Time{}, "all").TopHandles)
}

// MockStorage is a mock implementation of storage.StorageInterface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Store(ctx context.Context, key string, data []byte) error {
	return m.Called(ctx, key, data).Error(0)
}

func (m *MockStorage) Retrieve(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockStorage) List(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	keys, _ := args.Get(0).([]string)
	return keys, args.Error(1)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func TestRecorder_RecordDoesNotWaitForStore(t *testing.T) {
	release := make(chan struct{})
	var writeErr error
	store := new(MockStorage)
	store.On("Store", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, keyPrefix)
	}), mock.Anything).
		Run(func(args mock.Arguments) {
			<-release
			writeErr = args.Get(0).(context.Context).Err()
		}).
		Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	r := NewRecorder(store, nil)

	done := make(chan Event, 1)
	go func() { done <- r.Record(ctx, "alice", "original") }()

	select {
	case e := <-done:
		assert.Equal(t, "alice", e.Handle)
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a slow store")
	}
	assert.Equal(t, 1, r.Snapshot(time.Time{}, "all").TotalAnalyses)

	// A finished request must not abort the pending write.
	cancel()
	close(release)
	r.Wait()

	store.AssertExpectations(t)
	assert.NoError(t, writeErr)
}
