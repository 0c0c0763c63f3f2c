package domain

import "time"

// Represents one recorded cart count for a corral at a point in time.
// Hour and DayOfWeek are denormalized for time-of-day analysis.
type Snapshot struct {
	CorralID   string
	CartCount  float64
	RecordedAt time.Time
	Hour       int
	DayOfWeek  int
}

func NewSnapshot(id string, count float64, at time.Time) Snapshot {
	return Snapshot{
		CorralID:   id,
		CartCount:  count,
		RecordedAt: at,
		Hour:       at.Hour(),
		DayOfWeek:  int(at.Weekday()),
	}
}
