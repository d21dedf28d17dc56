package handlers

import (
	"errors"
	"net/http"

	"github.com/cuesports/progression/internal/domain"
	"github.com/cuesports/progression/internal/repository/lock"
	"github.com/cuesports/progression/internal/service"
)

type TournamentHandler struct {
	coordinator *service.Coordinator
}

func NewTournamentHandler(coordinator *service.Coordinator) *TournamentHandler {
	return &TournamentHandler{coordinator: coordinator}
}

type InitializeTournamentRequest struct {
	TournamentID string `json:"tournamentId" validate:"required"`
}

// InitializeTournament handles POST /initialize-tournament (spec.md §6):
// seeds the bracket document and generates the first round for every
// community entity in scope.
func (h *TournamentHandler) InitializeTournament(w http.ResponseWriter, r *http.Request) {
	var req InitializeTournamentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	result, err := h.coordinator.InitializeTournament(r.Context(), req.TournamentID)
	if err != nil {
		writeCoordinatorError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result)
}

type AdvanceLevelRequest struct {
	TournamentID string `json:"tournamentId" validate:"required"`
}

// AdvanceLevel handles POST /{county,regional,national}/initialize: promotes
// finishers from the level below into the requested level and generates its
// first round (spec.md §4.6, §6).
func (h *TournamentHandler) AdvanceLevel(level domain.Level) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdvanceLevelRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
			return
		}

		result, err := h.coordinator.AdvanceLevel(r.Context(), req.TournamentID, level)
		if err != nil {
			writeCoordinatorError(w, err)
			return
		}

		writeSuccess(w, http.StatusOK, result)
	}
}

// writeCoordinatorError maps Coordinator errors to HTTP statuses by
// dispatching on the sentinel error values, the teacher's errors.Is idiom
// applied across the full error surface spec.md §7 defines.
func writeCoordinatorError(w http.ResponseWriter, err error) {
	var incomplete *domain.IncompleteRoundError
	switch {
	case errors.As(err, &incomplete):
		writeJSON(w, http.StatusConflict, incompleteRoundResponse{
			Success:            false,
			Error:              "previous round incomplete",
			RoundLabel:         incomplete.RoundLabel,
			IncompleteMatchIDs: incomplete.IncompleteMatchIDs,
			TotalMatches:       incomplete.TotalMatches,
			CompletedMatches:   incomplete.CompletedMatches,
		})
	case errors.Is(err, lock.ErrLocked):
		writeError(w, http.StatusConflict, "entity is currently being processed by another request")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInsufficientPlayers), errors.Is(err, domain.ErrDuplicatePlayer), errors.Is(err, domain.ErrUnexpectedPoolSize):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNoWinnersFound), errors.Is(err, domain.ErrMissingPositioningMatches), errors.Is(err, domain.ErrTieUndecidable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

type incompleteRoundResponse struct {
	Success            bool     `json:"success"`
	Error              string   `json:"error"`
	RoundLabel         string   `json:"roundLabel"`
	IncompleteMatchIDs []string `json:"incompleteMatchIds"`
	TotalMatches       int      `json:"totalMatches"`
	CompletedMatches   int      `json:"completedMatches"`
}
