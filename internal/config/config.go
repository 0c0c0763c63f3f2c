package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Depot count policies for route requests that omit or filter out the depot.
const (
	DepotCountFromRequest = "request"
	DepotCountFromStore   = "store"
)

type Config struct {
	Port     string
	SeedPath string

	// LayoutPath points to a YAML corral layout; empty selects the default lot.
	LayoutPath string

	CollectionThreshold float64
	DepotCountPolicy    string

	SolverCommand string
	SolverArgs    []string
	// SolverURL selects the HTTP solver instead of the subprocess one.
	SolverURL     string
	SolverAPIKey  string
	SolverWorkDir string
	SolverTimeout time.Duration
	// SolverRatePerSec <= 0 disables spawn limiting.
	SolverRatePerSec float64
	SolverBurst      int

	RedisURL      string
	RouteCacheTTL time.Duration

	HistoryDriver string
	HistoryDBPath string
	DatabaseURL   string
}

func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load builds a Config from environment variables.
// Callers are expected to have loaded any .env file beforehand.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          Get("PORT", "3000"),
		SeedPath:      Get("SEED_PATH", "data/seeds/corrals.json"),
		LayoutPath:    os.Getenv("LAYOUT_PATH"),
		SolverCommand: Get("SOLVER_COMMAND", "python3"),
		SolverArgs:    strings.Fields(Get("SOLVER_ARGS", "optimizer/optimizer.py")),
		SolverURL:     os.Getenv("SOLVER_URL"),
		SolverAPIKey:  os.Getenv("SOLVER_API_KEY"),
		SolverWorkDir: os.Getenv("SOLVER_WORKDIR"),
		RedisURL:      os.Getenv("REDIS_URL"),
		HistoryDriver: Get("HISTORY_DB_DRIVER", "sqlite"),
		HistoryDBPath: Get("HISTORY_DB_PATH", "data/history.db"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
	}

	var err error
	if cfg.CollectionThreshold, err = getFloat("COLLECTION_THRESHOLD", 5); err != nil {
		return nil, err
	}
	if cfg.CollectionThreshold < 0 {
		return nil, fmt.Errorf("load config: COLLECTION_THRESHOLD must be >= 0, got %v", cfg.CollectionThreshold)
	}

	cfg.DepotCountPolicy = strings.ToLower(Get("DEPOT_COUNT_POLICY", DepotCountFromRequest))
	switch cfg.DepotCountPolicy {
	case DepotCountFromRequest, DepotCountFromStore:
	default:
		return nil, fmt.Errorf("load config: DEPOT_COUNT_POLICY must be %q or %q, got %q",
			DepotCountFromRequest, DepotCountFromStore, cfg.DepotCountPolicy)
	}

	if cfg.SolverTimeout, err = getDuration("SOLVER_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.SolverTimeout <= 0 {
		return nil, fmt.Errorf("load config: SOLVER_TIMEOUT must be positive, got %s", cfg.SolverTimeout)
	}

	if cfg.SolverRatePerSec, err = getFloat("SOLVER_RATE_PER_SEC", 0); err != nil {
		return nil, err
	}
	burst, err := getFloat("SOLVER_BURST", 4)
	if err != nil {
		return nil, err
	}
	cfg.SolverBurst = int(burst)

	if cfg.RouteCacheTTL, err = getDuration("ROUTE_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	// Both caches expire entries after RouteCacheTTL; there is no "never expire".
	if cfg.RouteCacheTTL <= 0 {
		return nil, fmt.Errorf("load config: ROUTE_CACHE_TTL must be positive, got %s", cfg.RouteCacheTTL)
	}

	switch cfg.HistoryDriver {
	case "sqlite", "pgx", "none":
	default:
		return nil, fmt.Errorf("load config: HISTORY_DB_DRIVER must be sqlite, pgx or none, got %q", cfg.HistoryDriver)
	}
	if cfg.HistoryDriver == "pgx" && strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("load config: DATABASE_URL is required when HISTORY_DB_DRIVER=pgx")
	}

	return cfg, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("load config: parse %s=%q: %w", key, v, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("load config: parse %s=%q: %w", key, v, err)
	}
	return d, nil
}
