package cache

import (
	"cart-route-service/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisCache(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisRouteCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	c, err := NewRedisRouteCacheFromURL(context.Background(), "redis://"+mr.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return mr, c
}

func TestRedisRouteCacheRoundTrip(t *testing.T) {
	_, c := newMiniredisCache(t, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "route:missing")
	require.NoError(t, err)
	assert.False(t, ok)

	want := domain.RouteResult{
		Success:        true,
		OptimizedRoute: []string{"A", "C", "B", "A"},
		TotalDistance:  4.83,
		Method:         "or-tools-tsp",
		CorralsCovered: 2,
	}
	require.NoError(t, c.Put(ctx, "route:abc", want))

	got, ok, err := c.Get(ctx, "route:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRedisRouteCacheExpires(t *testing.T) {
	mr, c := newMiniredisCache(t, 30*time.Second)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "route:ttl", domain.RouteResult{Success: true}))
	mr.FastForward(31 * time.Second)

	_, ok, err := c.Get(ctx, "route:ttl")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRouteCacheRejectsCorruptEntries(t *testing.T) {
	mr, c := newMiniredisCache(t, time.Minute)

	require.NoError(t, mr.Set("route:bad", "{not json"))

	_, _, err := c.Get(context.Background(), "route:bad")
	assert.Error(t, err)
}

func TestNewRedisRouteCacheFromURLFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisRouteCacheFromURL(context.Background(), "redis://"+addr, time.Minute)
	assert.Error(t, err)

	_, err = NewRedisRouteCacheFromURL(context.Background(), "://bad", time.Minute)
	assert.Error(t, err)
}

func TestRedisRouteCacheNilClient(t *testing.T) {
	c := NewRedisRouteCache((*redis.Client)(nil), time.Minute)

	_, _, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, c.Put(context.Background(), "k", domain.RouteResult{}))
}

func TestRouteKeyIsStable(t *testing.T) {
	a := RouteKey([]byte(`{"corrals":{"A":{"x":0,"y":0,"count":5}},"depot":"A"}`))
	b := RouteKey([]byte(`{"corrals":{"A":{"x":0,"y":0,"count":5}},"depot":"A"}`))
	c := RouteKey([]byte(`{"corrals":{"A":{"x":0,"y":0,"count":6}},"depot":"A"}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "route:")
}
