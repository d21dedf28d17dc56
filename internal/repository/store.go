// Package repository defines the dual-store persistence contracts spec.md §3
// implies: a relational Match Store (one row per match, grounded on the
// teacher's lib/pq matches table) and a document Bracket Store (one nested
// document per tournament, grounded on the teacher's community/tournament
// services' use of richer nested JSON).
package repository

import (
	"context"
	"errors"

	"github.com/cuesports/progression/internal/domain"
)

var ErrMatchNotFound = errors.New("match not found")
var ErrBracketNotFound = errors.New("bracket not found")

// MatchStore persists individual matches, keyed by their deterministic id
// (spec.md §3 "Match id grammar"). Reads are always scoped to one
// (tournamentId, level, entity) tuple, matching how the State Machine and
// Finalizer consume them.
type MatchStore interface {
	GetByEntity(ctx context.Context, tournamentID string, level domain.Level, entityID string) ([]domain.Match, error)
	UpsertBatch(ctx context.Context, matches []domain.Match) error
	GetByID(ctx context.Context, id string) (domain.Match, error)
}

// BracketStore persists the single per-tournament bracket document (spec.md
// §3 "Bracket").
type BracketStore interface {
	Get(ctx context.Context, tournamentID string) (*domain.Bracket, error)
	Create(ctx context.Context, b *domain.Bracket) error
	SetRoundMatches(ctx context.Context, tournamentID string, level domain.Level, entityID, roundLabel string, matchIDs []string, status domain.RoundStatus) error
	SetPositions(ctx context.Context, tournamentID string, level domain.Level, entityID string, pos domain.Positions) error
}

// TournamentStore resolves tournament configuration — scope, registered
// players, scheduling preference (spec.md §3 "Tournament configuration").
// This is a read-only view backed by the community/tournament services in
// the full system; here it is a thin interface the Coordinator depends on so
// it never needs to know whether the data came over HTTP or from a
// replicated table.
type TournamentStore interface {
	Get(ctx context.Context, tournamentID string) (domain.Tournament, error)
	RegisteredPlayers(ctx context.Context, tournamentID string) ([]domain.Player, error)
}
