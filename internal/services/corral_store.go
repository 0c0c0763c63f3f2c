package services

import (
	"cart-route-service/internal/domain"
	"cart-route-service/internal/platform/metrics"
	"cart-route-service/internal/platform/obs"
	"cart-route-service/internal/ports"
	"context"
	"errors"
	"fmt"
	"log"
	"maps"
	"sync"
	"time"
)

// UpdateResult echoes a successful state update.
type UpdateResult struct {
	NormalizedID  string
	CurrentStatus map[string]float64
	LastUpdatedAt time.Time
}

// CorralStore is the authoritative in-memory mapping of corral id to cart count.
//
// Updates are serialized by a single writer lock; readers take the read lock
// and receive a copy, so they observe the mapping either fully before or
// fully after any given update.
type CorralStore struct {
	registry *domain.Registry
	recorder ports.SnapshotRecorder
	now      func() time.Time

	mu            sync.RWMutex
	counts        map[string]float64
	lastUpdatedAt time.Time
}

type StoreOption func(*CorralStore)

// WithRecorder appends every accepted update to a snapshot history.
func WithRecorder(r ports.SnapshotRecorder) StoreOption {
	return func(s *CorralStore) { s.recorder = r }
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *CorralStore) { s.now = now }
}

// NewCorralStore seeds a store. Every seed id must exist in the registry.
func NewCorralStore(registry *domain.Registry, seed map[string]float64, opts ...StoreOption) (*CorralStore, error) {
	if registry == nil {
		return nil, errors.New("new corral store: registry must be non-nil")
	}

	s := &CorralStore{
		registry: registry,
		now:      time.Now,
		counts:   make(map[string]float64, len(seed)),
	}
	for _, opt := range opts {
		opt(s)
	}

	for rawID, count := range seed {
		id := domain.NormalizeID(rawID)
		if !registry.Contains(id) {
			return nil, fmt.Errorf("new corral store: seed corral %q: %w", rawID, domain.ErrUnknownCorral)
		}
		if count < 0 {
			return nil, fmt.Errorf("new corral store: seed corral %q: %w", rawID, domain.ErrNegativeCount)
		}
		s.counts[id] = count
	}

	return s, nil
}

// Get returns a snapshot of the current counts.
func (s *CorralStore) Get() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.counts)
}

// Count returns the current count for id and whether one has been recorded.
func (s *CorralStore) Count(id string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.counts[id]
	return c, ok
}

// LastUpdatedAt returns the time of the last accepted update, if any.
func (s *CorralStore) LastUpdatedAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastUpdatedAt, !s.lastUpdatedAt.IsZero()
}

// Update validates and applies a single count. Validation runs in a fixed
// order (missing, empty id, count type, registry membership) so the reported
// reason is deterministic; a rejected update leaves the store untouched.
func (s *CorralStore) Update(ctx context.Context, rawID *string, rawCount any) (UpdateResult, error) {
	res, err := s.update(rawID, rawCount)
	if err != nil {
		metrics.CorralUpdates.WithLabelValues(updateOutcome(err)).Inc()
		return UpdateResult{}, err
	}
	metrics.CorralUpdates.WithLabelValues("ok").Inc()

	if s.recorder != nil {
		snap := domain.NewSnapshot(res.NormalizedID, res.CurrentStatus[res.NormalizedID], res.LastUpdatedAt)
		if err := s.recorder.RecordSnapshot(ctx, snap); err != nil {
			log.Printf("req_id=%s op=corral.record corral=%s err=%v", obs.RequestID(ctx), res.NormalizedID, err)
		}
	}

	return res, nil
}

func (s *CorralStore) update(rawID *string, rawCount any) (UpdateResult, error) {
	if rawID == nil || rawCount == nil {
		return UpdateResult{}, fmt.Errorf("update corral: %w", domain.ErrMissingField)
	}

	id := domain.NormalizeID(*rawID)
	if id == "" {
		return UpdateResult{}, fmt.Errorf("update corral: %w", domain.ErrEmptyID)
	}

	count, err := domain.ParseCount(rawCount)
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update corral %q: %w", id, err)
	}
	if count < 0 {
		return UpdateResult{}, fmt.Errorf("update corral %q: count %v: %w", id, count, domain.ErrNegativeCount)
	}

	if !s.registry.Contains(id) {
		return UpdateResult{}, fmt.Errorf("update corral %q: %w", id, domain.ErrUnknownCorral)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[id] = count

	// Keep lastUpdatedAt monotonic even if the wall clock steps backwards.
	now := s.now()
	if now.Before(s.lastUpdatedAt) {
		now = s.lastUpdatedAt
	}
	s.lastUpdatedAt = now

	return UpdateResult{
		NormalizedID:  id,
		CurrentStatus: maps.Clone(s.counts),
		LastUpdatedAt: now,
	}, nil
}

func updateOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingField):
		return "missing_field"
	case errors.Is(err, domain.ErrEmptyID):
		return "empty_id"
	case errors.Is(err, domain.ErrNotANumber):
		return "not_a_number"
	case errors.Is(err, domain.ErrNegativeCount):
		return "negative_count"
	case errors.Is(err, domain.ErrUnknownCorral):
		return "unknown_corral"
	default:
		return "error"
	}
}
