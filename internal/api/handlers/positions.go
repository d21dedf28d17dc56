package handlers

import (
	"net/http"

	"github.com/cuesports/progression/internal/domain"
)

// Positions handles GET /tournament/positions (spec.md §6): returns the
// finalized 1/2/3 for one (level, entity) without attempting to finalize.
func (h *TournamentHandler) Positions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tournamentID := q.Get("tournamentId")
	level := domain.Level(q.Get("level"))
	entityID := q.Get("entityId")

	if tournamentID == "" || level == "" || entityID == "" {
		writeError(w, http.StatusBadRequest, "tournamentId, level, and entityId are required query parameters")
		return
	}

	pos, found, err := h.coordinator.Positions(r.Context(), tournamentID, level, entityID)
	if err != nil {
		writeCoordinatorError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "positions not yet finalized for this entity")
		return
	}

	writeSuccess(w, http.StatusOK, positionsResponse(pos))
}
