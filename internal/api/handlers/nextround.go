package handlers

import (
	"net/http"

	"github.com/cuesports/progression/internal/domain"
)

type NextRoundRequest struct {
	TournamentID   string `json:"tournamentId" validate:"required"`
	EntityID       string `json:"entityId" validate:"required"`
	CurrentRound   string `json:"currentRound"`
	IdempotencyKey string `json:"idempotencyKey"`
}

type NextRoundResponse struct {
	Action  string          `json:"action"`
	Matches []domain.Match `json:"matches,omitempty"`
}

// NextRound handles POST /{community,county,regional,national}/next-round
// (spec.md §6): recomputes the machine's actual current state and either
// generates the next round or finalizes. currentRound is accepted for API
// compatibility but never trusted over the persisted match state (spec.md
// §4.4).
func (h *TournamentHandler) NextRound(level domain.Level) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req NextRoundRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
			return
		}

		result, err := h.coordinator.NextRound(r.Context(), req.TournamentID, level, req.EntityID, req.CurrentRound, req.IdempotencyKey)
		if err != nil {
			writeCoordinatorError(w, err)
			return
		}

		writeSuccess(w, http.StatusOK, NextRoundResponse{
			Action:  string(result.Action),
			Matches: result.Matches,
		})
	}
}
