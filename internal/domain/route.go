package domain

// Represents the outcome of a collection route request.
// OptimizedRoute, when non-empty, always begins and ends with the depot.
// Method names the path that produced it (solver name or fallback).
type RouteResult struct {
	Success        bool
	OptimizedRoute []string
	TotalDistance  float64
	Method         string
	CorralsCovered int
	Note           string
	Message        string
}

// AnchoredAt reports whether a non-empty route starts and ends at depot.
// An empty route is trivially anchored.
func (r RouteResult) AnchoredAt(depot string) bool {
	n := len(r.OptimizedRoute)
	if n == 0 {
		return true
	}
	return n >= 2 && r.OptimizedRoute[0] == depot && r.OptimizedRoute[n-1] == depot
}

// A single corral as handed to the geometric solver.
type SolverCorral struct {
	X     int
	Y     int
	Count float64
}

// Payload written to the solver: every corral worth visiting plus the depot.
type SolverRequest struct {
	Corrals map[string]SolverCorral
	Depot   string
}
