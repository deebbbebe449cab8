package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Store(ctx, "profile/alice", []byte(`{"a":1}`)))
	got, err := s.Retrieve(ctx, "profile/alice")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	require.NoError(t, s.Store(ctx, "profile/alice", []byte(`{"a":2}`)))
	got, err = s.Retrieve(ctx, "profile/alice")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(got), "store overwrites")
}

func TestSQLiteStorage_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Retrieve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStorage_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, k := range []string{"profile/b", "profile/a", "context/1", "profile_x"} {
		require.NoError(t, s.Store(ctx, k, []byte("v")))
	}

	keys, err := s.List(ctx, "profile/")
	require.NoError(t, err)
	assert.Equal(t, []string{"profile/a", "profile/b"}, keys)

	require.NoError(t, s.Delete(ctx, "profile/a"))
	require.NoError(t, s.Delete(ctx, "profile/a"), "deleting twice is fine")

	keys, err = s.List(ctx, "profile/")
	require.NoError(t, err)
	assert.Equal(t, []string{"profile/b"}, keys)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestNew_DefaultsToSQLite(t *testing.T) {
	s, err := New(context.Background(), Options{SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStorage{}, s)
	s.(*SQLiteStorage).Close()
}
