package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, "report:sectors", sample{Name: "Tech", Count: 3}, time.Minute))

	var got sample
	require.NoError(t, c.Get(ctx, "report:sectors", &got))
	assert.Equal(t, sample{Name: "Tech", Count: 3}, got)

	assert.ErrorIs(t, c.Get(ctx, "missing", &got), ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, "k", 1, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var v int
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrCacheMiss)
	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_DeleteByPattern(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	for _, k := range []string{"report:sectors", "report:agents:x", "lock:onboarding"} {
		require.NoError(t, c.Set(ctx, k, k, time.Minute))
	}
	require.NoError(t, c.DeleteByPattern(ctx, "report:*"))

	ok, err := c.Exists(ctx, "report:sectors", "report:agents:x")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = c.Exists(ctx, "lock:onboarding")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_EvictsWhenFull(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(WithMemoryMaxSize(2))
	defer c.Close()

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, c.Set(ctx, "c", 3, time.Minute))

	var v int
	assert.ErrorIs(t, c.Get(ctx, "a", &v), ErrCacheMiss)
	require.NoError(t, c.Get(ctx, "c", &v))
	assert.Equal(t, 3, v)
}

func TestMemoryCache_TryLock(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	ok, err := c.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Unlock(ctx, "lock"))
	ok, err = c.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCache_UnlockNotHeld(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	assert.ErrorIs(t, c.Unlock(ctx, "lock"), ErrLockNotHeld)

	_, err := c.TryLock(ctx, "lock", 0)
	assert.Error(t, err)
}

func TestMemoryCache_LocksSurviveEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(WithMemoryMaxSize(1))
	defer c.Close()

	ok, err := c.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, c.DeleteByPattern(ctx, "*"))

	ok, err = c.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_Health(t *testing.T) {
	c := NewMemoryCache()
	require.NoError(t, c.Health(context.Background()))
	require.NoError(t, c.Close())
	assert.Error(t, c.Health(context.Background()))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "report:agents:x:0", Key("report", "agents", "x", 0))
	assert.Equal(t, "report", Key("report"))
	assert.Equal(t, "report:*", Namespace("report"))
}

func TestEncodeRoundTripBytes(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	require.NoError(t, c.Set(ctx, "raw", []byte("1000.50"), time.Minute))
	var s string
	require.NoError(t, c.Get(ctx, "raw", &s))
	assert.Equal(t, "1000.50", s)
}
