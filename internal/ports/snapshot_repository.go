package ports

import (
	"cart-route-service/internal/domain"
	"context"
)

// Port: a sink for cart count snapshots written after each state update.
type SnapshotRecorder interface {
	RecordSnapshot(ctx context.Context, s domain.Snapshot) error
}

// Port: read access to recorded snapshots, newest first.
type SnapshotRepository interface {
	SnapshotRecorder
	ListSnapshots(ctx context.Context, corralID string, limit int) ([]domain.Snapshot, error)
}
