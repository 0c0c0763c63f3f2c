package cache

import (
	"cart-route-service/internal/domain"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newSqliteCache(t *testing.T) *SqliteRouteCache {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	c := NewSqliteRouteCache(db, time.Minute)
	require.NoError(t, c.InitSchema(context.Background()))
	return c
}

func TestSqliteRouteCacheRoundTrip(t *testing.T) {
	c := newSqliteCache(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "route:1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := domain.RouteResult{Success: true, OptimizedRoute: []string{"A", "B", "A"}, Method: "or-tools-tsp", CorralsCovered: 1, TotalDistance: 2}
	require.NoError(t, c.Put(ctx, "route:1", want))

	// Overwrite keeps a single row per key.
	want.TotalDistance = 3
	require.NoError(t, c.Put(ctx, "route:1", want))

	got, ok, err := c.Get(ctx, "route:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestSqliteRouteCacheIgnoresExpiredRows(t *testing.T) {
	c := newSqliteCache(t)
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	require.NoError(t, c.Put(ctx, "route:old", domain.RouteResult{Success: true}))

	now = now.Add(2 * time.Minute)
	_, ok, err := c.Get(ctx, "route:old")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSqliteRouteCacheRejectsEmptyKey(t *testing.T) {
	c := newSqliteCache(t)

	_, _, err := c.Get(context.Background(), " ")
	assert.Error(t, err)
	assert.Error(t, c.Put(context.Background(), "", domain.RouteResult{}))
}
