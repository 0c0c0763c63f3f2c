package repositories

import (
	"cart-route-service/internal/domain"
	"cart-route-service/internal/platform/obs"
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Postgres-backed implementation of the SnapshotRepository port.
// Expects a *sql.DB opened with the pgx driver.
type SQLSnapshotRepository struct{ DB *sql.DB }

func NewSQLSnapshotRepository(db *sql.DB) *SQLSnapshotRepository {
	return &SQLSnapshotRepository{DB: db}
}

func (s *SQLSnapshotRepository) RecordSnapshot(ctx context.Context, snap domain.Snapshot) (err error) {
	defer obs.Time(ctx, "history.postgres.RecordSnapshot")(&err)

	if s.DB == nil {
		return errors.New("sql snapshot repository: DB is nil")
	}

	q := `
	INSERT INTO corral_snapshots (corral_id, cart_count, recorded_at, hour, day_of_week)
	VALUES ($1, $2, $3, $4, $5);
	`
	if _, err := s.DB.ExecContext(ctx, q, snap.CorralID, snap.CartCount, snap.RecordedAt, snap.Hour, snap.DayOfWeek); err != nil {
		return fmt.Errorf("record snapshot corral=%q: %w", snap.CorralID, err)
	}

	return nil
}

// Copy many snapshots in a single transaction.
func (s *SQLSnapshotRepository) RecordMany(ctx context.Context, snaps []domain.Snapshot) error {
	if s.DB == nil {
		return errors.New("sql snapshot repository: DB is nil")
	}

	if len(snaps) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record snapshots: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO corral_snapshots (corral_id, cart_count, recorded_at, hour, day_of_week)
	VALUES ($1, $2, $3, $4, $5);
	`)
	if err != nil {
		return fmt.Errorf("record snapshots: db prepare: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snaps {
		if _, err := stmt.ExecContext(ctx, snap.CorralID, snap.CartCount, snap.RecordedAt, snap.Hour, snap.DayOfWeek); err != nil {
			return fmt.Errorf("record snapshots corral=%q: %w", snap.CorralID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record snapshots commit: %w", err)
	}

	return nil
}

func (s *SQLSnapshotRepository) ListSnapshots(ctx context.Context, corralID string, limit int) ([]domain.Snapshot, error) {
	if s.DB == nil {
		return nil, errors.New("sql snapshot repository: DB is nil")
	}

	if limit <= 0 {
		limit = defaultSnapshotLimit
	}

	q := `
	SELECT corral_id, cart_count, recorded_at, hour, day_of_week
	FROM corral_snapshots
	WHERE ($1 = '' OR corral_id = $1)
	ORDER BY recorded_at DESC, id DESC
	LIMIT $2;
	`
	rows, err := s.DB.QueryContext(ctx, q, corralID, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: query corral_snapshots table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Snapshot, 0, limit)
	for rows.Next() {
		var snap domain.Snapshot
		if err := rows.Scan(&snap.CorralID, &snap.CartCount, &snap.RecordedAt, &snap.Hour, &snap.DayOfWeek); err != nil {
			return nil, fmt.Errorf("list snapshots: scan rows: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: row iteration: %w", err)
	}

	return out, nil
}
