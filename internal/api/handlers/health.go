package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cuesports/progression/internal/repository"
)

type HealthHandler struct {
	matches  repository.MatchStore
	brackets repository.BracketStore
}

func NewHealthHandler(matches repository.MatchStore, brackets repository.BracketStore) *HealthHandler {
	return &HealthHandler{matches: matches, brackets: brackets}
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Service: "progression"})
}

type connectionProbeResult struct {
	Store   string `json:"store"`
	Reachable bool `json:"reachable"`
	Error   string `json:"error,omitempty"`
}

type testConnectionResponse struct {
	Success bool                    `json:"success"`
	Probes  []connectionProbeResult `json:"probes"`
}

// TestConnection handles GET /test-connection, a supplemented endpoint: it
// actually exercises both stores with a cheap read rather than only
// reporting process liveness, the connectivity-probe-first pattern the
// original implementation's test harness relied on before running any
// scenario.
func (h *HealthHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	probes := []connectionProbeResult{
		probeMatchStore(ctx, h.matches),
		probeBracketStore(ctx, h.brackets),
	}

	allReachable := true
	for _, p := range probes {
		if !p.Reachable {
			allReachable = false
		}
	}

	status := http.StatusOK
	if !allReachable {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, testConnectionResponse{Success: allReachable, Probes: probes})
}

func probeMatchStore(ctx context.Context, store repository.MatchStore) connectionProbeResult {
	_, err := store.GetByID(ctx, "__connection_probe__")
	if err != nil && !errors.Is(err, repository.ErrMatchNotFound) {
		return connectionProbeResult{Store: "match", Reachable: false, Error: err.Error()}
	}
	return connectionProbeResult{Store: "match", Reachable: true}
}

func probeBracketStore(ctx context.Context, store repository.BracketStore) connectionProbeResult {
	_, err := store.Get(ctx, "__connection_probe__")
	if err != nil && !errors.Is(err, repository.ErrBracketNotFound) {
		return connectionProbeResult{Store: "bracket", Reachable: false, Error: err.Error()}
	}
	return connectionProbeResult{Store: "bracket", Reachable: true}
}
