package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pulsedeck/pulsedeck/server/internal/api/respond"
	"github.com/pulsedeck/pulsedeck/server/internal/curator"
)

// CuratorHandler exposes curator rotation.
type CuratorHandler struct {
	svc *curator.Service
}

func NewCuratorHandler(svc *curator.Service) *CuratorHandler {
	return &CuratorHandler{svc: svc}
}

// GetCurrent handles GET /api/curator/current.
func (h *CuratorHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Current(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, a)
}

// GetHistory handles GET /api/curator/history?limit=n.
func (h *CuratorHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	hist, err := h.svc.History(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, hist)
}

// Rotate handles POST /api/curator/rotate.
func (h *CuratorHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AssignedBy string `json:"assignedBy"`
		Manual     bool   `json:"manual"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			respond.WriteBadRequest(w, "invalid json")
			return
		}
	}

	a, err := h.svc.Rotate(r.Context(), in.AssignedBy, in.Manual)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, a)
}
