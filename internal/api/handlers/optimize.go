package handlers

import (
	"bytes"
	"cart-route-service/internal/api/dto"
	"cart-route-service/internal/domain"
	"cart-route-service/internal/services"
	"encoding/json"
	"errors"
	"log"
	"net/http"
)

type OptimizeHandler struct {
	Optimizer *services.Optimizer
}

const invalidCorralData = "missing or invalid cart corral data"

// Optimize accepts {"corrals": {id: count}} and returns a collection route.
// Solver failures never surface here; the optimizer falls back on its own.
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.OptimizeRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		writeError(w, r, http.StatusBadRequest, bodyErrorMessage(err))
		return
	}

	raw, ok := decodeCorrals(req.Corrals)
	if !ok {
		writeError(w, r, http.StatusBadRequest, invalidCorralData)
		return
	}

	res, err := h.Optimizer.Optimize(r.Context(), raw)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, invalidCorralData)
			return
		}
		log.Printf("optimize route failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(res))
}

// decodeCorrals reports false when corrals is absent, null or not an object.
func decodeCorrals(data json.RawMessage) (map[string]any, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, false
	}
	return raw, true
}
