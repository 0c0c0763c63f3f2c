package handlers

import (
	"cart-route-service/internal/domain"
	"net/http"
	"time"
)

// HealthHandler reports liveness plus the loaded lot, so a misconfigured
// layout is visible without reading logs.
type HealthHandler struct {
	Registry *domain.Registry
	Started  time.Time
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	res := map[string]any{
		"status":        "ok",
		"depot":         h.Registry.DepotID(),
		"corrals":       len(h.Registry.IDs()),
		"uptimeSeconds": int64(time.Since(h.Started).Seconds()),
	}
	writeJSON(w, r, http.StatusOK, res)
}
