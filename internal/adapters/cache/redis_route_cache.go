package cache

import (
	"cart-route-service/internal/domain"
	"cart-route-service/internal/platform/obs"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisRouteCache stores solver results in Redis with a fixed TTL.
type RedisRouteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisRouteCache(rdb *redis.Client, ttl time.Duration) *RedisRouteCache {
	return &RedisRouteCache{rdb: rdb, ttl: ttl}
}

// NewRedisRouteCacheFromURL parses a redis:// URL and verifies the connection.
func NewRedisRouteCacheFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisRouteCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("route cache: parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("route cache: ping redis: %w", err)
	}

	return NewRedisRouteCache(rdb, ttl), nil
}

func (c *RedisRouteCache) Get(ctx context.Context, key string) (_ domain.RouteResult, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if c.rdb == nil {
		return domain.RouteResult{}, false, errors.New("route cache: redis client is nil")
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.RouteResult{}, false, nil
	}
	if err != nil {
		return domain.RouteResult{}, false, fmt.Errorf("route cache: get %q: %w", key, err)
	}

	var res domain.RouteResult
	if err := json.Unmarshal(data, &res); err != nil {
		return domain.RouteResult{}, false, fmt.Errorf("route cache: decode %q: %w", key, err)
	}

	return res, true, nil
}

func (c *RedisRouteCache) Put(ctx context.Context, key string, res domain.RouteResult) error {
	if c.rdb == nil {
		return errors.New("route cache: redis client is nil")
	}

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("route cache: encode %q: %w", key, err)
	}

	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("route cache: set %q: %w", key, err)
	}

	return nil
}

func (c *RedisRouteCache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
