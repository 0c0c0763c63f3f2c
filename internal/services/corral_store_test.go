package services

import (
	"cart-route-service/internal/domain"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

type recordingRecorder struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
	err   error
}

func (r *recordingRecorder) RecordSnapshot(ctx context.Context, s domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
	return r.err
}

func newTestStore(t *testing.T, opts ...StoreOption) *CorralStore {
	t.Helper()

	s, err := NewCorralStore(domain.NewDefaultRegistry(), map[string]float64{"A": 5, "B": 12, "C": 8}, opts...)
	require.NoError(t, err)
	return s
}

func TestCorralStoreUpdateThenGet(t *testing.T) {
	at := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	s := newTestStore(t, WithClock(func() time.Time { return at }))

	res, err := s.Update(context.Background(), strPtr("  d "), 17.0)
	require.NoError(t, err)

	assert.Equal(t, "D", res.NormalizedID)
	assert.Equal(t, 17.0, res.CurrentStatus["D"])
	assert.True(t, res.LastUpdatedAt.Equal(at))

	got := s.Get()
	assert.Equal(t, map[string]float64{"A": 5, "B": 12, "C": 8, "D": 17}, got)

	last, ok := s.LastUpdatedAt()
	require.True(t, ok)
	assert.True(t, last.Equal(at))
}

func TestCorralStoreAcceptsNumericStrings(t *testing.T) {
	s := newTestStore(t)

	res, err := s.Update(context.Background(), strPtr("b"), "20")
	require.NoError(t, err)
	assert.Equal(t, 20.0, res.CurrentStatus["B"])
}

func TestCorralStoreUpdateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Update(ctx, strPtr("c"), 9)
	require.NoError(t, err)
	second, err := s.Update(ctx, strPtr("c"), 9)
	require.NoError(t, err)

	assert.Equal(t, first.NormalizedID, second.NormalizedID)
	assert.Equal(t, first.CurrentStatus, second.CurrentStatus)
	assert.False(t, second.LastUpdatedAt.Before(first.LastUpdatedAt))
}

func TestCorralStoreLastUpdatedAtIsMonotonic(t *testing.T) {
	clock := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	s := newTestStore(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	first, err := s.Update(ctx, strPtr("A"), 1)
	require.NoError(t, err)

	clock = clock.Add(-time.Hour)
	second, err := s.Update(ctx, strPtr("A"), 2)
	require.NoError(t, err)

	assert.True(t, second.LastUpdatedAt.Equal(first.LastUpdatedAt))
}

func TestCorralStoreValidation(t *testing.T) {
	tests := []struct {
		name  string
		id    *string
		count any
		want  error
	}{
		{"missing id", nil, 3, domain.ErrMissingField},
		{"missing count", strPtr("A"), nil, domain.ErrMissingField},
		{"missing both", nil, nil, domain.ErrMissingField},
		{"blank id", strPtr("   "), 3, domain.ErrEmptyID},
		{"blank id wins over bad count", strPtr(""), "abc", domain.ErrEmptyID},
		{"not a number", strPtr("A"), "abc", domain.ErrNotANumber},
		{"bool count", strPtr("A"), true, domain.ErrNotANumber},
		{"count checked before membership", strPtr("ZZ"), "abc", domain.ErrNotANumber},
		{"negative count", strPtr("A"), -4, domain.ErrNegativeCount},
		{"unknown corral", strPtr("Z"), 3, domain.ErrUnknownCorral},
		{"multi letter id", strPtr("AB"), 3, domain.ErrUnknownCorral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			before := s.Get()

			_, err := s.Update(context.Background(), tt.id, tt.count)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, domain.IsValidationError(err))

			assert.Equal(t, before, s.Get())
			_, updated := s.LastUpdatedAt()
			assert.False(t, updated)
		})
	}
}

func TestCorralStoreGetReturnsCopy(t *testing.T) {
	s := newTestStore(t)

	m := s.Get()
	m["A"] = 999

	assert.Equal(t, 5.0, s.Get()["A"])
}

func TestCorralStoreRecordsSnapshots(t *testing.T) {
	rec := &recordingRecorder{}
	at := time.Date(2026, 3, 7, 15, 30, 0, 0, time.UTC)
	s := newTestStore(t, WithRecorder(rec), WithClock(func() time.Time { return at }))

	_, err := s.Update(context.Background(), strPtr("e"), 31)
	require.NoError(t, err)

	require.Len(t, rec.snaps, 1)
	assert.Equal(t, "E", rec.snaps[0].CorralID)
	assert.Equal(t, 31.0, rec.snaps[0].CartCount)
	assert.Equal(t, 15, rec.snaps[0].Hour)
	assert.Equal(t, int(time.Saturday), rec.snaps[0].DayOfWeek)
}

func TestCorralStoreIgnoresRecorderFailure(t *testing.T) {
	rec := &recordingRecorder{err: errors.New("disk full")}
	s := newTestStore(t, WithRecorder(rec))

	_, err := s.Update(context.Background(), strPtr("A"), 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, s.Get()["A"])
}

func TestCorralStoreRejectsBadSeed(t *testing.T) {
	_, err := NewCorralStore(domain.NewDefaultRegistry(), map[string]float64{"Z": 1})
	assert.ErrorIs(t, err, domain.ErrUnknownCorral)

	_, err = NewCorralStore(domain.NewDefaultRegistry(), map[string]float64{"A": -1})
	assert.ErrorIs(t, err, domain.ErrNegativeCount)

	_, err = NewCorralStore(nil, nil)
	assert.Error(t, err)
}

func TestCorralStoreConcurrentUpdates(t *testing.T) {
	s, err := NewCorralStore(domain.NewDefaultRegistry(), nil)
	require.NoError(t, err)

	ids := domain.NewDefaultRegistry().IDs()

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(2)
		go func(id string, n int) {
			defer wg.Done()
			_, err := s.Update(context.Background(), &id, n)
			assert.NoError(t, err)
		}(id, i)
		go func() {
			defer wg.Done()
			_ = s.Get()
		}()
	}
	wg.Wait()

	got := s.Get()
	require.Len(t, got, len(ids))
	for i, id := range ids {
		assert.Equal(t, float64(i), got[id])
	}
}
