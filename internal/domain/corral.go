package domain

import (
	"strings"
)

// Represents a physical cart-storage location in the parking lot.
// A Corral is identified by a single uppercase letter and sits at a fixed
// grid position. Exactly one corral in a layout is the depot.
type Corral struct {
	ID          string
	Coordinates Coordinates
	IsDepot     bool
}

// NormalizeID trims surrounding whitespace and uppercases a raw corral id.
func NormalizeID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Severity buckets a cart count the way the lot grid colors it.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func SeverityOf(count float64) Severity {
	switch {
	case count >= 30:
		return SeverityHigh
	case count >= 15:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
