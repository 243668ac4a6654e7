package api

import (
	"errors"
	"net/http"

	"github.com/pulsedeck/pulsedeck/server/internal/api/respond"
	"github.com/pulsedeck/pulsedeck/server/internal/model"
)

// writeServiceError maps service-layer errors onto HTTP statuses.
// Scheduling conflicts carry the conflicting assignment so a human can
// resolve them; upstream generation failures surface as 502 rather
// than being disguised as cache misses.
func writeServiceError(w http.ResponseWriter, err error) {
	var sce *model.SchedulingConflictError
	if errors.As(err, &sce) {
		respond.WriteErrorDetails(w, http.StatusConflict, sce.Error(), sce.Conflict)
		return
	}

	var ue *model.UpstreamError
	if errors.As(err, &ue) {
		respond.WriteError(w, http.StatusBadGateway, ue.Error())
		return
	}

	switch {
	case errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrConflict):
		respond.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrEmptyCandidateSet):
		respond.WriteInternalError(w, "selection configuration error: "+err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
