package repositories

import (
	"cart-route-service/internal/domain"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, InitSchema(db))
	return db
}

func TestSqliteSnapshotRepositoryRecordAndList(t *testing.T) {
	repo := NewSqliteSnapshotRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 6, 16, 0, 0, 0, time.UTC) // Friday
	require.NoError(t, repo.RecordSnapshot(ctx, domain.NewSnapshot("A", 5, base)))
	require.NoError(t, repo.RecordSnapshot(ctx, domain.NewSnapshot("B", 12, base.Add(time.Minute))))
	require.NoError(t, repo.RecordSnapshot(ctx, domain.NewSnapshot("A", 9, base.Add(2*time.Minute))))

	all, err := repo.ListSnapshots(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "A", all[0].CorralID)
	assert.Equal(t, 9.0, all[0].CartCount)
	assert.Equal(t, "B", all[1].CorralID)

	onlyA, err := repo.ListSnapshots(ctx, "A", 10)
	require.NoError(t, err)
	require.Len(t, onlyA, 2)
	assert.True(t, onlyA[0].RecordedAt.Equal(base.Add(2*time.Minute)))
	assert.Equal(t, 16, onlyA[0].Hour)
	assert.Equal(t, int(time.Friday), onlyA[0].DayOfWeek)

	limited, err := repo.ListSnapshots(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSqliteSnapshotRepositoryNilDB(t *testing.T) {
	repo := NewSqliteSnapshotRepository(nil)

	assert.Error(t, repo.RecordSnapshot(context.Background(), domain.Snapshot{}))
	_, err := repo.ListSnapshots(context.Background(), "", 1)
	assert.Error(t, err)
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, InitSchema(db))
	assert.Error(t, InitSchema(nil))
}

func TestParseSeedSnapshot(t *testing.T) {
	seed, err := ParseSeedSnapshot([]byte(`{" a ": 5, "B": 12, "c": 8}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"A": 5, "B": 12, "C": 8}, seed)

	for _, bad := range []string{`[1,2]`, `{"A": -1}`, `{"": 3}`, `{"a": 1, "A": 2}`, `{"A": "x"}`} {
		_, err := ParseSeedSnapshot([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestLoadSeedSnapshotFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrals.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"A":5,"B":12,"C":8}`), 0o644))

	seed, err := LoadSeedSnapshot(path)
	require.NoError(t, err)
	assert.Len(t, seed, 3)

	_, err = LoadSeedSnapshot(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSeedSnapshotsRecordsEveryEntry(t *testing.T) {
	repo := NewSqliteSnapshotRepository(newTestDB(t))
	at := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

	n, err := SeedSnapshots(context.Background(), repo, map[string]float64{"A": 5, "B": 12, "C": 8}, at)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := repo.ListSnapshots(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, s := range got {
		assert.Equal(t, 9, s.Hour)
		assert.True(t, s.RecordedAt.Equal(at))
	}
}

func TestOpenHistoryNone(t *testing.T) {
	conn, repo, err := OpenHistory(DriverNone, "", "")
	require.NoError(t, err)
	assert.Nil(t, conn)
	assert.Nil(t, repo)

	_, _, err = OpenHistory("mysql", "", "")
	assert.Error(t, err)
}

func TestOpenHistorySQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	conn, repo, err := OpenHistory(DriverSQLite, path, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, repo.RecordSnapshot(context.Background(), domain.NewSnapshot("B", 4, time.Now())))
	got, err := repo.ListSnapshots(context.Background(), "B", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
