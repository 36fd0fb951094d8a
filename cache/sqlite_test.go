package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) *SQLite {
	t.Helper()
	c, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSQLite_getSet(t *testing.T) {
	t.Parallel()
	c := newSQLite(t)
	ctx := context.Background()

	got, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	// Upsert replaces the value.
	require.NoError(t, c.Set(ctx, "k", []byte("v2"), 0))
	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_ttl(t *testing.T) {
	t.Parallel()
	c := newSQLite(t)
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", []byte("v"), 0))

	now = now.Add(2 * time.Minute)
	got, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.NotNil(t, got)

	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLite_deletePrefix(t *testing.T) {
	t.Parallel()
	c := newSQLite(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "gen:a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "gen:b", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "other", []byte("3"), 0))

	require.NoError(t, c.DeletePrefix(ctx, "gen:"))

	got, err := c.Get(ctx, "gen:a")
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = c.Get(ctx, "other")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSQLite_survivesReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	c, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Close())

	c, err = NewSQLite(path)
	require.NoError(t, err)
	defer c.Close()
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestSQLite_clear(t *testing.T) {
	t.Parallel()
	c := newSQLite(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Clear(ctx))

	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
