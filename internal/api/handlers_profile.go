package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pulsedeck/pulsedeck/server/internal/api/respond"
	"github.com/pulsedeck/pulsedeck/server/internal/api/validate"
	"github.com/pulsedeck/pulsedeck/server/internal/model"
	"github.com/pulsedeck/pulsedeck/server/internal/store"
)

// ProfileHandler exposes the horoscope pipeline's profile input.
type ProfileHandler struct {
	profiles store.Profiles
}

func NewProfileHandler(profiles store.Profiles) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get handles GET /api/users/{userId}/profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, p)
}

// Put handles PUT /api/users/{userId}/profile.
func (h *ProfileHandler) Put(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]

	var in model.Profile
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	in.UserID = userID

	if err := validate.UpsertProfile(in.UserID, in.Name, in.Birthday); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	out, err := h.profiles.Upsert(r.Context(), &in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
