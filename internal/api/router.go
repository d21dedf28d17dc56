package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cuesports/progression/internal/api/handlers"
	"github.com/cuesports/progression/internal/domain"
	"github.com/cuesports/progression/internal/repository"
	"github.com/cuesports/progression/internal/service"
)

// NewRouter wires the 12 endpoints spec.md §6 defines, grounded on the
// teacher's bracket/internal/api/router.go.
func NewRouter(coordinator *service.Coordinator, matches repository.MatchStore, brackets repository.BracketStore) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:4200", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	tournamentHandler := handlers.NewTournamentHandler(coordinator)
	healthHandler := handlers.NewHealthHandler(matches, brackets)

	r.Get("/health", healthHandler.Health)
	r.Get("/test-connection", healthHandler.TestConnection)

	r.Post("/initialize-tournament", tournamentHandler.InitializeTournament)

	r.Post("/community/next-round", tournamentHandler.NextRound(domain.LevelCommunity))
	r.Post("/community/finalize-winners", tournamentHandler.FinalizeWinners)

	r.Post("/county/initialize", tournamentHandler.AdvanceLevel(domain.LevelCounty))
	r.Post("/county/next-round", tournamentHandler.NextRound(domain.LevelCounty))

	r.Post("/regional/initialize", tournamentHandler.AdvanceLevel(domain.LevelRegional))
	r.Post("/regional/next-round", tournamentHandler.NextRound(domain.LevelRegional))

	r.Post("/national/initialize", tournamentHandler.AdvanceLevel(domain.LevelNational))
	r.Post("/national/next-round", tournamentHandler.NextRound(domain.LevelNational))

	r.Post("/finalize", tournamentHandler.Finalize)
	r.Get("/tournament/positions", tournamentHandler.Positions)

	return r
}
