package cache

import (
	"cart-route-service/internal/domain"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SQLite backed cache for solver results, used when Redis is not configured.
// Expired rows are ignored on read and overwritten on the next Put.
type SqliteRouteCache struct {
	DB  *sql.DB
	TTL time.Duration
	now func() time.Time
}

func NewSqliteRouteCache(db *sql.DB, ttl time.Duration) *SqliteRouteCache {
	return &SqliteRouteCache{DB: db, TTL: ttl, now: time.Now}
}

// InitSchema creates the route_cache table if it does not exist.
func (s *SqliteRouteCache) InitSchema(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	q := `
	CREATE TABLE IF NOT EXISTS route_cache (
		cache_key TEXT PRIMARY KEY,
		result_json TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	);
	`
	if _, err := s.DB.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("route cache: init schema: %w", err)
	}
	return nil
}

func (s *SqliteRouteCache) Get(ctx context.Context, key string) (domain.RouteResult, bool, error) {
	if s.DB == nil {
		return domain.RouteResult{}, false, errors.New("route cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return domain.RouteResult{}, false, errors.New("get route cache: key must not be empty")
	}

	q := `
	SELECT result_json
	FROM route_cache
	WHERE cache_key = ?
		AND expires_at > ?;
	`

	var raw string
	err := s.DB.QueryRowContext(ctx, q, key, s.now().UnixMilli()).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RouteResult{}, false, nil
	}
	if err != nil {
		return domain.RouteResult{}, false, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	var res domain.RouteResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return domain.RouteResult{}, false, fmt.Errorf("get route cache: decode key=%q: %w", key, err)
	}

	return res, true, nil
}

func (s *SqliteRouteCache) Put(ctx context.Context, key string, res domain.RouteResult) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return errors.New("insert route cache: key must not be empty")
	}

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("insert route cache: encode key=%q: %w", key, err)
	}

	q := `
	INSERT INTO route_cache (cache_key, result_json, expires_at)
	VALUES (?, ?, ?)
	ON CONFLICT (cache_key) DO UPDATE
	SET result_json = excluded.result_json,
		expires_at = excluded.expires_at;
	`
	expiresAt := s.now().Add(s.TTL).UnixMilli()
	if _, err := s.DB.ExecContext(ctx, q, key, string(data), expiresAt); err != nil {
		return fmt.Errorf("insert route cache key=%q: %w", key, err)
	}

	return nil
}
