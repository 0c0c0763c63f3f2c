package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseCount converts a loosely-typed cart count into a finite float64.
// Numbers, json.Number and numeric strings are accepted; anything else,
// including NaN and infinities, fails with ErrNotANumber.
func ParseCount(raw any) (float64, error) {
	var f float64

	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("parse count %q: %w", v.String(), ErrNotANumber)
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, fmt.Errorf("parse count: empty string: %w", ErrNotANumber)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parse count %q: %w", v, ErrNotANumber)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("parse count: unsupported type %T: %w", raw, ErrNotANumber)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("parse count %v: %w", f, ErrNotANumber)
	}

	return f, nil
}
