package handlers

import (
	"cart-route-service/internal/api/dto"
	"cart-route-service/internal/domain"
	"cart-route-service/internal/ports"
	"cart-route-service/internal/services"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
)

// CorralHandler exposes the corral state store and its history.
type CorralHandler struct {
	Store     *services.CorralStore
	Registry  *domain.Registry
	Snapshots ports.SnapshotRepository
	Threshold float64
}

// State serves GET (current counts) and POST (single validated update).
func (h *CorralHandler) State(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, r, http.StatusOK, h.Store.Get())
	case http.MethodPost:
		h.update(w, r)
	default:
		w.Header().Set("Allow", http.MethodGet+", "+http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *CorralHandler) update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateCorralRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		writeError(w, r, http.StatusBadRequest, bodyErrorMessage(err))
		return
	}

	res, err := h.Store.Update(r.Context(), req.CorralID, req.Count)
	if err != nil {
		if domain.IsValidationError(err) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("update corral failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.UpdateCorralResponse{
		Message:       fmt.Sprintf("Corral %s updated", res.NormalizedID),
		CorralID:      res.NormalizedID,
		CurrentStatus: res.CurrentStatus,
		LastUpdated:   res.LastUpdatedAt,
	})
}

// Layout returns every registered corral with its position, count and severity.
func (h *CorralHandler) Layout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	counts := h.Store.Get()
	corrals := h.Registry.Corrals()

	res := dto.LayoutResponse{
		Depot:     h.Registry.DepotID(),
		Threshold: h.Threshold,
		Corrals:   make([]dto.CorralLayoutResponse, 0, len(corrals)),
	}
	if at, ok := h.Store.LastUpdatedAt(); ok {
		res.LastUpdated = &at
	}

	for _, c := range corrals {
		count := counts[c.ID]
		res.Corrals = append(res.Corrals, dto.CorralLayoutResponse{
			ID:        c.ID,
			X:         c.Coordinates.X,
			Y:         c.Coordinates.Y,
			IsDepot:   c.IsDepot,
			CartCount: count,
			Severity:  string(domain.SeverityOf(count)),
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// History lists recorded snapshots, optionally filtered by ?corral= and capped by ?limit=.
func (h *CorralHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if h.Snapshots == nil {
		writeError(w, r, http.StatusNotFound, "history is not enabled")
		return
	}

	q := r.URL.Query()

	corral := domain.NormalizeID(q.Get("corral"))
	if corral != "" && !h.Registry.Contains(corral) {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("unknown corral %q", corral))
		return
	}

	limit := 50
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	snaps, err := h.Snapshots.ListSnapshots(r.Context(), corral, limit)
	if err != nil {
		log.Printf("list snapshots failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListSnapshotsResponse{Snapshots: make([]dto.SnapshotResponse, 0, len(snaps))}
	for _, s := range snaps {
		res.Snapshots = append(res.Snapshots, dto.SnapshotResponse{
			CorralID:   s.CorralID,
			CartCount:  s.CartCount,
			RecordedAt: s.RecordedAt,
			Hour:       s.Hour,
			DayOfWeek:  s.DayOfWeek,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
