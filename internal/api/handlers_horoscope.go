package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/pulsedeck/pulsedeck/server/internal/api/respond"
	"github.com/pulsedeck/pulsedeck/server/internal/api/validate"
	"github.com/pulsedeck/pulsedeck/server/internal/horoscope"
	"github.com/pulsedeck/pulsedeck/server/internal/store"
)

// HoroscopeHandler exposes the daily generation orchestrator.
type HoroscopeHandler struct {
	svc       *horoscope.Service
	artifacts store.Artifacts
}

func NewHoroscopeHandler(svc *horoscope.Service, artifacts store.Artifacts) *HoroscopeHandler {
	return &HoroscopeHandler{svc: svc, artifacts: artifacts}
}

// GetDaily handles GET /api/users/{userId}/horoscope. It returns the
// cached artifact when fresh and generates otherwise; both cases
// answer 200 with the terminal state attached.
func (h *HoroscopeHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	out, err := h.svc.Daily(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// GetDates handles GET /api/users/{userId}/horoscope/dates. It lists
// dates with a stored artifact, most recent first.
func (h *HoroscopeHandler) GetDates(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.WriteBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	dates, err := h.artifacts.ListDates(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	respond.WriteJSON(w, http.StatusOK, dates)
}
