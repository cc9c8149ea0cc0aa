package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)   {}
func (nopLogger) Error(string, ...any)  {}
func (nopLogger) Debug(string, ...any)  {}
func (nopLogger) Debugf(string, ...any) {}

func newTestCache(t *testing.T, cfg *Config) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(cfg, nopLogger{})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestMemoryCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, &Config{Prefix: "test:"})

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "k"))
	ok, _ = c.Exists(ctx, "k")
	assert.False(t, ok)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, &Config{})

	require.NoError(t, c.Set(ctx, "short", []byte("v"), 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, c.Set(ctx, "forever", []byte("v"), -1))
	ttl, err := c.GetTTL(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)
}

func TestMemoryCache_IncrementKeepsWindow(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, &Config{})

	n, err := c.Increment(ctx, "hits", 1, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	first, err := c.GetTTL(ctx, "hits")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	n, err = c.Increment(ctx, "hits", 2, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	second, err := c.GetTTL(ctx, "hits")
	require.NoError(t, err)
	assert.LessOrEqual(t, second, first)
}

func TestMemoryCache_Lock(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, &Config{})

	token, ok, err := c.Lock(ctx, "product:1", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = c.Lock(ctx, "product:1", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, c.Unlock(ctx, "product:1", "someone-else"), ErrLockNotHeld)
	require.NoError(t, c.Unlock(ctx, "product:1", token))

	_, ok, err = c.Lock(ctx, "product:1", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, &Config{Prefix: "app:"})

	require.NoError(t, c.Set(ctx, "products:list:a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "products:list:b", []byte("2"), time.Minute))
	require.NoError(t, c.Set(ctx, "users:1", []byte("3"), time.Minute))

	n, err := c.DeletePattern(ctx, "products:list:*")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	ok, _ := c.Exists(ctx, "users:1")
	assert.True(t, ok)
}

func TestMemoryCache_EvictsOldestWhenFull(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, &Config{MaxSize: 2})

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Minute))

	ok, _ := c.Exists(ctx, "a")
	assert.False(t, ok)
	ok, _ = c.Exists(ctx, "c")
	assert.True(t, ok)
}

func TestMemoryCache_JSON(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, &Config{})

	type payload struct {
		Count int `json:"count"`
	}
	require.NoError(t, c.SetJSON(ctx, "p", payload{Count: 3}, time.Minute))

	var got payload
	require.NoError(t, c.GetJSON(ctx, "p", &got))
	assert.Equal(t, 3, got.Count)
}

func TestGenerateCacheKey_OrderIndependent(t *testing.T) {
	a := GenerateCacheKey("products:list:v1", map[string]string{"page": "2", "q": "lamp"})
	b := GenerateCacheKey("products:list:v1", map[string]string{"q": "lamp", "page": "2"})
	c := GenerateCacheKey("products:list:v2", map[string]string{"q": "lamp", "page": "2"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, len("products:list:v1:")+16)
}
