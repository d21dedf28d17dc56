package handlers

import (
	"net/http"

	"github.com/cuesports/progression/internal/domain"
)

type FinalizeWinnersRequest struct {
	TournamentID string `json:"tournamentId" validate:"required"`
	CommunityID  string `json:"communityId" validate:"required"`
}

// FinalizeWinners handles POST /community/finalize-winners (spec.md §6).
func (h *TournamentHandler) FinalizeWinners(w http.ResponseWriter, r *http.Request) {
	var req FinalizeWinnersRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	pos, err := h.coordinator.FinalizeWinners(r.Context(), req.TournamentID, req.CommunityID)
	if err != nil {
		writeCoordinatorError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, positionsResponse(pos))
}

type FinalizeRequest struct {
	TournamentID string       `json:"tournamentId" validate:"required"`
	Level        domain.Level `json:"level" validate:"required"`
	EntityID     string       `json:"entityId" validate:"required"`
}

// Finalize handles POST /finalize (spec.md §6): the generic finalize
// endpoint for any level, including special tournaments and national.
func (h *TournamentHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	var req FinalizeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	pos, err := h.coordinator.Finalize(r.Context(), req.TournamentID, req.Level, req.EntityID)
	if err != nil {
		writeCoordinatorError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, positionsResponse(pos))
}

type positionsResponsePayload struct {
	First  *domain.PlayerRef `json:"first"`
	Second *domain.PlayerRef `json:"second"`
	Third  *domain.PlayerRef `json:"third"`
}

func positionsResponse(pos domain.Positions) positionsResponsePayload {
	return positionsResponsePayload{First: pos.First, Second: pos.Second, Third: pos.Third}
}
