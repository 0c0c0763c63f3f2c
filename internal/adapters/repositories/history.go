package repositories

import (
	"cart-route-service/internal/domain"
	"cart-route-service/internal/platform/db"
	"cart-route-service/internal/ports"
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"time"
)

// History drivers accepted by OpenHistory.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
	DriverNone     = "none"
)

// OpenHistory opens the snapshot history database for driver and makes sure
// its schema exists. DriverNone returns a nil DB and repository.
// Callers must blank-import the matching database/sql driver.
func OpenHistory(driver, sqlitePath, databaseURL string) (*sql.DB, ports.SnapshotRepository, error) {
	switch driver {
	case DriverNone:
		return nil, nil, nil

	case DriverSQLite:
		conn, err := db.OpenSQLite(sqlitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open history: %w", err)
		}
		if err := InitSchema(conn); err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("open history: %w", err)
		}
		return conn, NewSqliteSnapshotRepository(conn), nil

	case DriverPostgres:
		conn, err := db.Open(databaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open history: %w", err)
		}
		if err := InitPostgresSchema(conn); err != nil {
			_ = conn.Close()
			return nil, nil, fmt.Errorf("open history: %w", err)
		}
		return conn, NewSQLSnapshotRepository(conn), nil

	default:
		return nil, nil, fmt.Errorf("open history: unknown driver %q", driver)
	}
}

type batchRecorder interface {
	RecordMany(ctx context.Context, snaps []domain.Snapshot) error
}

// SeedSnapshots writes one snapshot per seed entry, all stamped with at.
// Recorders that support batching receive a single call.
func SeedSnapshots(ctx context.Context, rec ports.SnapshotRecorder, seed map[string]float64, at time.Time) (int, error) {
	snaps := make([]domain.Snapshot, 0, len(seed))
	for _, id := range slices.Sorted(maps.Keys(seed)) {
		snaps = append(snaps, domain.NewSnapshot(id, seed[id], at))
	}

	if b, ok := rec.(batchRecorder); ok {
		if err := b.RecordMany(ctx, snaps); err != nil {
			return 0, fmt.Errorf("seed snapshots: %w", err)
		}
		return len(snaps), nil
	}

	for i, s := range snaps {
		if err := rec.RecordSnapshot(ctx, s); err != nil {
			return i, fmt.Errorf("seed snapshots: %w", err)
		}
	}
	return len(snaps), nil
}
