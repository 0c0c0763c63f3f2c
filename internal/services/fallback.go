package services

import (
	"cart-route-service/internal/domain"
	"cmp"
	"slices"
)

const FallbackMethod = "count-priority-fallback"

// FallbackRoute orders corrals by cart count without any geometry.
//
// Corrals below threshold are dropped, the depot is never a stop, and the
// remaining ids are sorted by count descending with ties broken by id
// ascending. The route is anchored at the depot on both ends, so a depot
// that alone meets the threshold yields [depot, depot]. The route is empty
// only when nothing meets the threshold. TotalDistance is always 0 because
// no distances are computed.
func FallbackRoute(corrals map[string]float64, depot string, threshold float64) domain.RouteResult {
	type entry struct {
		id    string
		count float64
	}

	stops := make([]entry, 0, len(corrals))
	depotKept := false
	for id, count := range corrals {
		if count < threshold {
			continue
		}
		if id == depot {
			depotKept = true
			continue
		}
		stops = append(stops, entry{id: id, count: count})
	}

	if len(stops) == 0 && !depotKept {
		return domain.RouteResult{
			Success:        true,
			OptimizedRoute: []string{},
			Method:         FallbackMethod,
			Message:        "No corrals at or above the collection threshold.",
		}
	}

	slices.SortStableFunc(stops, func(a, b entry) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})

	route := make([]string, 0, len(stops)+2)
	route = append(route, depot)
	for _, s := range stops {
		route = append(route, s.id)
	}
	route = append(route, depot)

	return domain.RouteResult{
		Success:        true,
		OptimizedRoute: route,
		TotalDistance:  0,
		Method:         FallbackMethod,
		CorralsCovered: len(stops),
	}
}
