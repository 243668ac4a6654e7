package api

import (
	"net/http"

	"github.com/pulsedeck/pulsedeck/server/internal/api/respond"
	"github.com/pulsedeck/pulsedeck/server/internal/store"
)

// RulesHandler exposes read-only views of the weighting reference data.
type RulesHandler struct {
	rules store.Rules
}

func NewRulesHandler(rules store.Rules) *RulesHandler {
	return &RulesHandler{rules: rules}
}

// GetActiveRuleset handles GET /api/rulesets/active.
func (h *RulesHandler) GetActiveRuleset(w http.ResponseWriter, r *http.Request) {
	rs, err := h.rules.ActiveRuleset(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, rs)
}

// GetStyles handles GET /api/styles.
func (h *RulesHandler) GetStyles(w http.ResponseWriter, r *http.Request) {
	styles, err := h.rules.Styles(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, styles)
}
