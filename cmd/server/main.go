package main

import (
	"cart-route-service/internal/adapters/cache"
	"cart-route-service/internal/adapters/repositories"
	"cart-route-service/internal/adapters/solver"
	"cart-route-service/internal/api"
	"cart-route-service/internal/config"
	"cart-route-service/internal/platform/metrics"
	"cart-route-service/internal/ports"
	"cart-route-service/internal/services"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"
)

// main is the application composition root.
// It wires concrete adapters (solver process, caches, history DB) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	registry, threshold, err := config.LoadRegistry(cfg.LayoutPath, cfg.CollectionThreshold)
	if err != nil {
		log.Fatal(err)
	}

	seed, err := loadSeed(cfg.SeedPath)
	if err != nil {
		log.Fatal(err)
	}

	historyDB, history, err := repositories.OpenHistory(cfg.HistoryDriver, cfg.HistoryDBPath, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if historyDB != nil {
		defer historyDB.Close()
	}

	routeCache, closeCache, err := openRouteCache(cfg, historyDB)
	if err != nil {
		log.Fatal(err)
	}
	defer closeCache()

	routeSolver, err := newSolver(cfg, routeCache)
	if err != nil {
		log.Fatal(err)
	}

	var storeOpts []services.StoreOption
	if history != nil {
		storeOpts = append(storeOpts, services.WithRecorder(history))
	}
	store, err := services.NewCorralStore(registry, seed, storeOpts...)
	if err != nil {
		log.Fatal(err)
	}

	optimizer, err := services.NewOptimizer(registry, routeSolver, store, services.OptimizerConfig{
		Threshold:        threshold,
		SolverTimeout:    cfg.SolverTimeout,
		DepotCountPolicy: cfg.DepotCountPolicy,
	})
	if err != nil {
		log.Fatal(err)
	}

	metrics.RegisterDefault()
	router := api.NewRouter(registry, store, optimizer, history)

	log.Printf("Server listening addr=:%s corrals=%d depot=%s threshold=%v solver=%q history=%s",
		cfg.Port, len(registry.IDs()), registry.DepotID(), threshold, routeSolver.Name(), cfg.HistoryDriver)

	// WriteTimeout leaves room for a full solver timeout plus the fallback.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.SolverTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// newSolver prefers a remote solver when SOLVER_URL is set.
func newSolver(cfg *config.Config, routeCache ports.RouteCache) (ports.RouteSolver, error) {
	if cfg.SolverURL != "" {
		return solver.NewHTTPSolver(cfg.SolverURL, cfg.SolverAPIKey, routeCache)
	}

	opts := []solver.Option{
		solver.WithRateLimit(cfg.SolverRatePerSec, cfg.SolverBurst),
		solver.WithWorkDir(cfg.SolverWorkDir),
	}
	if routeCache != nil {
		opts = append(opts, solver.WithCache(routeCache))
	}
	return solver.NewSubprocessSolver(cfg.SolverCommand, cfg.SolverArgs, opts...)
}

// loadSeed treats a missing seed file as an empty lot.
func loadSeed(path string) (map[string]float64, error) {
	seed, err := repositories.LoadSeedSnapshot(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("seed file %q not found, starting with no counts", path)
		return map[string]float64{}, nil
	}
	return seed, err
}

// openRouteCache prefers Redis and falls back to a table in the SQLite
// history database. It returns a nil cache when neither is available.
func openRouteCache(cfg *config.Config, historyDB *sql.DB) (ports.RouteCache, func(), error) {
	noop := func() {}

	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rc, err := cache.NewRedisRouteCacheFromURL(ctx, cfg.RedisURL, cfg.RouteCacheTTL)
		if err != nil {
			return nil, noop, fmt.Errorf("open route cache: %w", err)
		}
		return rc, func() { _ = rc.Close() }, nil
	}

	if cfg.HistoryDriver == repositories.DriverSQLite && historyDB != nil {
		sc := cache.NewSqliteRouteCache(historyDB, cfg.RouteCacheTTL)
		if err := sc.InitSchema(context.Background()); err != nil {
			return nil, noop, fmt.Errorf("open route cache: %w", err)
		}
		return sc, noop, nil
	}

	return nil, noop, nil
}
