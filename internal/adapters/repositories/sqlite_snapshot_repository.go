package repositories

import (
	"cart-route-service/internal/domain"
	"cart-route-service/internal/platform/obs"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const defaultSnapshotLimit = 50

// SQLite-backed implementation of the SnapshotRepository port.
type SqliteSnapshotRepository struct{ DB *sql.DB }

func NewSqliteSnapshotRepository(db *sql.DB) *SqliteSnapshotRepository {
	return &SqliteSnapshotRepository{DB: db}
}

// Append one snapshot to the history.
func (s *SqliteSnapshotRepository) RecordSnapshot(ctx context.Context, snap domain.Snapshot) (err error) {
	defer obs.Time(ctx, "history.sqlite.RecordSnapshot")(&err)

	if s.DB == nil {
		return errors.New("sqlite snapshot repository: DB is nil")
	}

	query := `
	INSERT INTO corral_snapshots (
		corral_id,
		cart_count,
		recorded_at,
		hour,
		day_of_week
	)
	VALUES (?, ?, ?, ?, ?);
	`
	_, err = s.DB.ExecContext(ctx, query,
		snap.CorralID,
		snap.CartCount,
		snap.RecordedAt.UnixMilli(),
		snap.Hour,
		snap.DayOfWeek,
	)
	if err != nil {
		return fmt.Errorf("record snapshot corral=%q: %w", snap.CorralID, err)
	}

	return nil
}

// Return recorded snapshots newest first. An empty corralID lists all corrals.
func (s *SqliteSnapshotRepository) ListSnapshots(ctx context.Context, corralID string, limit int) ([]domain.Snapshot, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite snapshot repository: DB is nil")
	}

	if limit <= 0 {
		limit = defaultSnapshotLimit
	}

	query := `
	SELECT
		corral_id,
		cart_count,
		recorded_at,
		hour,
		day_of_week
	FROM corral_snapshots
	WHERE (? = '' OR corral_id = ?)
	ORDER BY recorded_at DESC, id DESC
	LIMIT ?;
	`
	rows, err := s.DB.QueryContext(ctx, query, corralID, corralID, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: query corral_snapshots table: %w", err)
	}
	defer rows.Close()

	snapshots := make([]domain.Snapshot, 0, limit)
	for rows.Next() {
		var snap domain.Snapshot
		var recordedAt int64
		if err := rows.Scan(&snap.CorralID, &snap.CartCount, &recordedAt, &snap.Hour, &snap.DayOfWeek); err != nil {
			return nil, fmt.Errorf("list snapshots: scan row: %w", err)
		}
		snap.RecordedAt = time.UnixMilli(recordedAt).UTC()
		snapshots = append(snapshots, snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: row iteration: %w", err)
	}

	return snapshots, nil
}
