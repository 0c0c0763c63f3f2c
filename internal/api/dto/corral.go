package dto

import (
	"encoding/json"
	"time"
)

// UpdateCorralRequest keeps both fields loosely typed so missing, null and
// non-numeric values reach the store's validation unchanged.
type UpdateCorralRequest struct {
	CorralID *string `json:"corral_id"`
	Count    any     `json:"count"`
}

type UpdateCorralResponse struct {
	Message       string             `json:"message"`
	CorralID      string             `json:"corralId"`
	CurrentStatus map[string]float64 `json:"currentStatus"`
	LastUpdated   time.Time          `json:"lastUpdated"`
}

type CorralLayoutResponse struct {
	ID        string  `json:"id"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	IsDepot   bool    `json:"isDepot"`
	CartCount float64 `json:"cartCount"`
	Severity  string  `json:"severity"`
}

type LayoutResponse struct {
	Depot       string                 `json:"depot"`
	Threshold   float64                `json:"threshold"`
	LastUpdated *time.Time             `json:"lastUpdated"`
	Corrals     []CorralLayoutResponse `json:"corrals"`
}

type SnapshotResponse struct {
	CorralID   string    `json:"corralId"`
	CartCount  float64   `json:"cartCount"`
	RecordedAt time.Time `json:"recordedAt"`
	Hour       int       `json:"hour"`
	DayOfWeek  int       `json:"dayOfWeek"`
}

type ListSnapshotsResponse struct {
	Snapshots []SnapshotResponse `json:"snapshots"`
}

// OptimizeRequest holds the raw corrals object; it is decoded separately so
// a non-object value can be reported as invalid input.
type OptimizeRequest struct {
	Corrals json.RawMessage `json:"corrals"`
}
