package repositories

import (
	"cart-route-service/internal/domain"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Initialize the SQLite history schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createSnapshotsQuery := `
	CREATE TABLE IF NOT EXISTS corral_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		corral_id TEXT NOT NULL,
		cart_count REAL NOT NULL,
		recorded_at INTEGER NOT NULL,
		hour INTEGER NOT NULL,
		day_of_week INTEGER NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_corral_snapshots_corral_recorded
	ON corral_snapshots(corral_id, recorded_at);
	`

	statements := []string{
		createSnapshotsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Initialize the Postgres history schema.
func InitPostgresSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init postgres schema: DB is nil")
	}

	statements := []string{
		`
		CREATE TABLE IF NOT EXISTS corral_snapshots (
			id BIGSERIAL PRIMARY KEY,
			corral_id TEXT NOT NULL,
			cart_count DOUBLE PRECISION NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL,
			hour SMALLINT NOT NULL,
			day_of_week SMALLINT NOT NULL
		);
		`,
		`
		CREATE INDEX IF NOT EXISTS idx_corral_snapshots_corral_recorded
		ON corral_snapshots(corral_id, recorded_at DESC);
		`,
	}

	for i, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init postgres schema: exec statement #%d: %w", i+1, err)
		}
	}

	return nil
}

// LoadSeedSnapshot reads the initial id -> count mapping from a JSON file,
// e.g. {"A": 5, "B": 12}. Ids are normalized; counts must be non-negative.
func LoadSeedSnapshot(jsonPath string) (map[string]float64, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed corrals: read %q: %w", jsonPath, err)
	}

	return ParseSeedSnapshot(bytes)
}

func ParseSeedSnapshot(data []byte) (map[string]float64, error) {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("seed corrals: parse json: %w", err)
	}

	out := make(map[string]float64, len(raw))
	for id, count := range raw {
		norm := domain.NormalizeID(id)
		if norm == "" {
			return nil, errors.New("seed corrals: corral id cannot be empty")
		}
		if count < 0 {
			return nil, fmt.Errorf("seed corrals: corral %q has negative count %v", norm, count)
		}
		if _, dup := out[norm]; dup {
			return nil, fmt.Errorf("seed corrals: duplicate corral id %q", norm)
		}
		out[norm] = count
	}

	return out, nil
}
