package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_getSet(t *testing.T) {
	t.Parallel()
	c := NewLRU(8)
	ctx := context.Background()

	got, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLRU_ttl(t *testing.T) {
	t.Parallel()
	c := NewLRU(8)
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "short", []byte("v"), time.Minute))
	require.NoError(t, c.Set(ctx, "forever", []byte("v"), 0))

	got, err := c.Get(ctx, "short")
	require.NoError(t, err)
	assert.NotNil(t, got)

	now = now.Add(2 * time.Minute)
	got, err = c.Get(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, got, "expired entry reads as a miss")

	got, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.NotNil(t, got, "zero ttl never expires")
}

func TestLRU_eviction(t *testing.T) {
	t.Parallel()
	c := NewLRU(2)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	assert.Equal(t, 2, c.Len())
	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got, "oldest entry is evicted")
}

func TestLRU_deletePrefix(t *testing.T) {
	t.Parallel()
	c := NewLRU(8)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "gen:a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "gen:b", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "other", []byte("3"), 0))

	require.NoError(t, c.DeletePrefix(ctx, "gen:"))
	assert.Equal(t, 1, c.Len())

	got, err := c.Get(ctx, "other")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestLRU_clear(t *testing.T) {
	t.Parallel()
	c := NewLRU(8)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, c.Len())
}
