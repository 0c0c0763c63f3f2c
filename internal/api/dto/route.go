package dto

import "cart-route-service/internal/domain"

type RouteResponse struct {
	Success        bool     `json:"success"`
	OptimizedRoute []string `json:"optimizedRoute"`
	TotalDistance  float64  `json:"totalDistance"`
	Method         string   `json:"method"`
	CorralsCovered int      `json:"corralsCovered"`
	Note           string   `json:"note,omitempty"`
	Message        string   `json:"message,omitempty"`
}

func NewRouteResponse(r domain.RouteResult) RouteResponse {
	route := r.OptimizedRoute
	if route == nil {
		route = []string{}
	}

	return RouteResponse{
		Success:        r.Success,
		OptimizedRoute: route,
		TotalDistance:  r.TotalDistance,
		Method:         r.Method,
		CorralsCovered: r.CorralsCovered,
		Note:           r.Note,
		Message:        r.Message,
	}
}
