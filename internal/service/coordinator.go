// Package service implements the Coordinator (spec.md §2 item 8): the one
// component with I/O. It resolves entities and pools, drives the pure
// State Machine and Round Generator, and persists the result, grounded on
// the teacher's service/match.go orchestration style.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cuesports/progression/internal/archive"
	"github.com/cuesports/progression/internal/domain"
	"github.com/cuesports/progression/internal/engine"
	"github.com/cuesports/progression/internal/events"
	"github.com/cuesports/progression/internal/metrics"
	"github.com/cuesports/progression/internal/repository"
	"github.com/cuesports/progression/internal/repository/lock"
	"github.com/cuesports/progression/internal/resolver"
	"github.com/cuesports/progression/internal/statemachine"
)

var ErrAlreadyLocked = lock.ErrLocked

// Coordinator is the single I/O-performing component: every pure decision it
// makes comes from statemachine/engine, and every side effect (persistence,
// events, archiving) happens here (spec.md §5).
type Coordinator struct {
	Matches     repository.MatchStore
	Brackets    repository.BracketStore
	Tournaments repository.TournamentStore
	Locks       *lock.EntityLock
	Idempotency *lock.IdempotencyCache
	Publisher   *events.Publisher
	Archiver    *archive.Archiver

	Now func() time.Time
}

func (c *Coordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// InitializeTournamentResult summarizes one call to InitializeTournament.
type InitializeTournamentResult struct {
	EntitiesInitialized int
}

// InitializeTournament seeds the bracket document and generates the first
// round (or positioning regime) for every community entity in scope
// (spec.md §4.1, §6 "initialize-tournament"). Entities are processed in
// parallel via errgroup, one goroutine per entity, matching the
// pack's fan-out idiom.
func (c *Coordinator) InitializeTournament(ctx context.Context, tournamentID string) (InitializeTournamentResult, error) {
	tournament, err := c.Tournaments.Get(ctx, tournamentID)
	if err != nil {
		return InitializeTournamentResult{}, fmt.Errorf("load tournament: %w", err)
	}

	existing, err := c.Brackets.Get(ctx, tournamentID)
	if err != nil && !errors.Is(err, repository.ErrBracketNotFound) {
		return InitializeTournamentResult{}, fmt.Errorf("load bracket: %w", err)
	}
	if existing == nil {
		b := domain.NewBracket(tournamentID, tournament.ParticipantScope, c.now())
		if err := c.Brackets.Create(ctx, b); err != nil {
			return InitializeTournamentResult{}, fmt.Errorf("create bracket: %w", err)
		}
	}

	registered, err := c.Tournaments.RegisteredPlayers(ctx, tournamentID)
	if err != nil {
		return InitializeTournamentResult{}, fmt.Errorf("load registered players: %w", err)
	}

	// Special tournaments have no geographic partition: the whole registered
	// roster is one entity at whatever level the tournament is configured
	// for (spec.md §4.1 "Special tournaments").
	if tournament.Special {
		if err := c.initializeEntity(ctx, tournamentID, tournament.HierarchicalLevel, domain.NationalEntityID, registered, tournament.SchedulingPreference); err != nil {
			return InitializeTournamentResult{}, err
		}
		return InitializeTournamentResult{EntitiesInitialized: 1}, nil
	}

	entities := resolver.Entities(domain.LevelCommunity, tournament.ParticipantScope)

	g, gctx := errgroup.WithContext(ctx)
	initialized := 0
	for _, entityID := range entities {
		entityID := entityID
		pool := resolver.InitialPool(entityID, registered)
		if len(pool) == 0 {
			continue
		}
		initialized++
		g.Go(func() error {
			return c.initializeEntity(gctx, tournamentID, domain.LevelCommunity, entityID, pool, tournament.SchedulingPreference)
		})
	}
	if err := g.Wait(); err != nil {
		return InitializeTournamentResult{}, err
	}

	return InitializeTournamentResult{EntitiesInitialized: initialized}, nil
}

func (c *Coordinator) initializeEntity(ctx context.Context, tournamentID string, level domain.Level, entityID string, pool []domain.Player, pref domain.SchedulingPreference) error {
	token, err := c.Locks.Acquire(ctx, tournamentID, string(level), entityID)
	if err != nil {
		return err
	}
	defer c.Locks.Release(ctx, tournamentID, string(level), entityID, token)

	decision, err := statemachine.DecideInitial(level, pool)
	if err != nil {
		return fmt.Errorf("decide initial round for %s/%s: %w", level, entityID, err)
	}

	return c.applyGenerateRound(ctx, tournamentID, level, entityID, decision, pref)
}

// NextRoundResult reports the outcome of one NextRound call.
type NextRoundResult struct {
	Action statemachine.Action
	Matches []domain.Match
}

// NextRound recomputes the machine's current state for one entity from its
// persisted matches and either generates the next round or finalizes —
// exactly the idempotent, restartable protocol spec.md §4.4 requires. The
// caller-supplied currentRoundHint is accepted for API compatibility but
// never trusted.
func (c *Coordinator) NextRound(ctx context.Context, tournamentID string, level domain.Level, entityID, currentRoundHint, idempotencyKey string) (NextRoundResult, error) {
	if seen, err := c.Idempotency.SeenBefore(ctx, tournamentID, string(level), entityID, idempotencyKey); err != nil {
		log.Printf("coordinator: idempotency check failed for %s/%s/%s: %v", tournamentID, level, entityID, err)
	} else if seen {
		matches, err := c.Matches.GetByEntity(ctx, tournamentID, level, entityID)
		if err != nil {
			return NextRoundResult{}, err
		}
		return NextRoundResult{Action: statemachine.ActionGenerateRound, Matches: matches}, nil
	}

	token, err := c.Locks.Acquire(ctx, tournamentID, string(level), entityID)
	if err != nil {
		return NextRoundResult{}, err
	}
	defer c.Locks.Release(ctx, tournamentID, string(level), entityID, token)

	allMatches, err := c.Matches.GetByEntity(ctx, tournamentID, level, entityID)
	if err != nil {
		return NextRoundResult{}, fmt.Errorf("load matches: %w", err)
	}

	decision, err := statemachine.DecideNext(level, allMatches, currentRoundHint)
	if err != nil {
		var incomplete *domain.IncompleteRoundError
		if errors.As(err, &incomplete) {
			metrics.PreviousRoundIncomplete.WithLabelValues(string(level)).Inc()
		}
		return NextRoundResult{}, err
	}

	if decision.Action == statemachine.ActionFinalize {
		pos, err := c.finalizeEntity(ctx, tournamentID, level, entityID, allMatches)
		if err != nil {
			return NextRoundResult{}, err
		}
		_ = pos
		return NextRoundResult{Action: statemachine.ActionFinalize}, nil
	}

	tournament, err := c.Tournaments.Get(ctx, tournamentID)
	if err != nil {
		return NextRoundResult{}, fmt.Errorf("load tournament: %w", err)
	}

	if err := c.applyGenerateRound(ctx, tournamentID, level, entityID, decision, tournament.SchedulingPreference); err != nil {
		return NextRoundResult{}, err
	}

	matches, err := c.Matches.GetByEntity(ctx, tournamentID, level, entityID)
	if err != nil {
		return NextRoundResult{}, err
	}
	return NextRoundResult{Action: statemachine.ActionGenerateRound, Matches: matches}, nil
}

// applyGenerateRound dispatches on decision.Regime to the matching Round
// Generator/positioning function, annotates scheduling, persists the
// matches, and updates the bracket document — the tagged-sum dispatch
// spec.md §9 asks for.
func (c *Coordinator) applyGenerateRound(ctx context.Context, tournamentID string, level domain.Level, entityID string, decision statemachine.Decision, pref domain.SchedulingPreference) error {
	now := c.now()
	shuffler := engine.NewSeededShuffler(tournamentID, string(level), entityID, decision.RoundLabel)

	var matches []domain.Match
	var roundLabelsToStatus = map[string]domain.RoundStatus{}

	switch decision.Regime {
	case statemachine.RegimeStandard:
		in := engine.StandardRoundInput{
			TournamentID: tournamentID, Level: level, EntityID: entityID,
			RoundLabel: decision.RoundLabel, RoundNumber: decision.RoundNumber,
			Pool: decision.Pool, IsFirstRound: decision.IsFirstRound,
			Shuffler: shuffler, BestLoserCandidates: decision.BestLoserCandidates,
		}
		ms, err := engine.GenerateStandardRound(in, now)
		if err != nil {
			return fmt.Errorf("generate standard round: %w", err)
		}
		matches = ms
		roundLabelsToStatus[decision.RoundLabel] = domain.RoundInProgress

	case statemachine.RegimePool1:
		m, err := engine.PositioningPool1(tournamentID, level, entityID, decision.RoundLabel, decision.Pool, now)
		if err != nil {
			return err
		}
		matches = []domain.Match{m}
		roundLabelsToStatus[decision.RoundLabel] = domain.RoundCompleted

	case statemachine.RegimePool2:
		m, err := engine.PositioningPool2(tournamentID, level, entityID, decision.RoundLabel, decision.Pool, now)
		if err != nil {
			return err
		}
		matches = []domain.Match{m}
		roundLabelsToStatus[decision.RoundLabel] = domain.RoundInProgress

	case statemachine.RegimePool3Initial:
		m, err := engine.PositioningThreePlayerInitial(tournamentID, level, entityID, decision.RoundLabel, decision.Pool, shuffler, now)
		if err != nil {
			return err
		}
		matches = []domain.Match{m}
		roundLabelsToStatus[decision.RoundLabel] = domain.RoundInProgress

	case statemachine.RegimePool3Final:
		m, err := engine.PositioningThreePlayerFinal(tournamentID, level, entityID, decision.RoundLabel, decision.SourceMatches[0], now)
		if err != nil {
			return err
		}
		matches = []domain.Match{m}
		roundLabelsToStatus[decision.RoundLabel] = domain.RoundInProgress

	case statemachine.RegimePool4Semis:
		ms, err := engine.PositioningFourPlayerSemis(tournamentID, level, entityID, decision.RoundLabel, decision.Pool, shuffler, now)
		if err != nil {
			return err
		}
		matches = ms
		roundLabelsToStatus[decision.RoundLabel] = domain.RoundInProgress

	case statemachine.RegimePool4Finals:
		wf, lf, err := engine.PositioningFourPlayerFinals(tournamentID, level, entityID, decision.WinnersFinalLabel, decision.LosersFinalLabel, decision.SourceMatches[0], decision.SourceMatches[1], now)
		if err != nil {
			return err
		}
		matches = []domain.Match{wf, lf}
		roundLabelsToStatus[decision.WinnersFinalLabel] = domain.RoundInProgress
		roundLabelsToStatus[decision.LosersFinalLabel] = domain.RoundInProgress

	case statemachine.RegimePool4Final:
		m, err := engine.PositioningFourPlayerFinal(tournamentID, level, entityID, decision.RoundLabel, decision.SourceMatches[0], decision.SourceMatches[1], now)
		if err != nil {
			return err
		}
		matches = []domain.Match{m}
		roundLabelsToStatus[decision.RoundLabel] = domain.RoundInProgress

	default:
		return fmt.Errorf("%w: unknown regime %q", domain.ErrInvalidInput, decision.Regime)
	}

	matches = engine.AnnotateRound(matches, decision.RoundLabel, decision.RoundNumber, isFinalRegime(decision.Regime), pref, level, now)

	if err := c.Matches.UpsertBatch(ctx, matches); err != nil {
		return fmt.Errorf("persist matches: %w", err)
	}

	for roundLabel, status := range roundLabelsToStatus {
		ids := idsForLabel(matches, roundLabel)
		if len(ids) == 0 {
			continue
		}
		if err := c.Brackets.SetRoundMatches(ctx, tournamentID, level, entityID, roundLabel, ids, status); err != nil {
			return fmt.Errorf("update bracket rounds: %w", err)
		}
	}

	metrics.RoundsGenerated.WithLabelValues(string(level), string(decision.Regime)).Inc()
	c.Publisher.PublishRoundCompleted(ctx, events.RoundCompletedEvent{
		TournamentID: tournamentID, Level: level, EntityID: entityID,
		RoundLabel: decision.RoundLabel, MatchIDs: idsOf(matches),
	})

	return nil
}

func isFinalRegime(r statemachine.Regime) bool {
	switch r {
	case statemachine.RegimePool1, statemachine.RegimePool2, statemachine.RegimePool3Final, statemachine.RegimePool4Final:
		return true
	default:
		return false
	}
}

func idsForLabel(matches []domain.Match, roundLabel string) []string {
	var ids []string
	for _, m := range matches {
		if m.RoundLabel == roundLabel {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func idsOf(matches []domain.Match) []string {
	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return ids
}

// finalizeEntity runs the Position Finalizer and persists positions
// idempotently (spec.md §4.5): re-running finalize on an already-finalized
// entity returns the existing positions unchanged rather than recomputing.
func (c *Coordinator) finalizeEntity(ctx context.Context, tournamentID string, level domain.Level, entityID string, allMatches []domain.Match) (domain.Positions, error) {
	bracket, err := c.Brackets.Get(ctx, tournamentID)
	if err != nil {
		return domain.Positions{}, fmt.Errorf("load bracket: %w", err)
	}

	existing, alreadyFinalized := bracket.GetPositions(level, entityID)

	pos, err := statemachine.Finalize(level, allMatches, existing, alreadyFinalized)
	if err != nil {
		return domain.Positions{}, fmt.Errorf("finalize positions: %w", err)
	}

	if !alreadyFinalized {
		if err := c.Brackets.SetPositions(ctx, tournamentID, level, entityID, pos); err != nil {
			return domain.Positions{}, fmt.Errorf("persist positions: %w", err)
		}

		metrics.PositionsFinalized.WithLabelValues(string(level)).Inc()
		c.Publisher.PublishPositionFinalized(ctx, events.PositionFinalizedEvent{
			TournamentID: tournamentID, Level: level, EntityID: entityID, Positions: pos,
		})

		if c.Archiver != nil {
			if err := c.Archiver.ArchivePositions(ctx, tournamentID, level, entityID, pos, c.now()); err != nil {
				log.Printf("coordinator: archive failed for %s/%s/%s: %v", tournamentID, level, entityID, err)
			}
		}

		if level == domain.LevelNational {
			c.Publisher.PublishTournamentCompleted(ctx, events.TournamentCompletedEvent{TournamentID: tournamentID})
		}
	}

	return pos, nil
}

// FinalizeWinners is the community-level entrypoint spec.md §6's
// "community/finalize-winners" endpoint calls; it is identical to the
// generic finalize path, kept as a distinct method name because the
// endpoint is community-specific while /finalize accepts any level.
func (c *Coordinator) FinalizeWinners(ctx context.Context, tournamentID, communityID string) (domain.Positions, error) {
	allMatches, err := c.Matches.GetByEntity(ctx, tournamentID, domain.LevelCommunity, communityID)
	if err != nil {
		return domain.Positions{}, fmt.Errorf("load matches: %w", err)
	}
	return c.finalizeEntity(ctx, tournamentID, domain.LevelCommunity, communityID, allMatches)
}

// Finalize is the generic entrypoint spec.md §6's "/finalize" endpoint
// calls for any level.
func (c *Coordinator) Finalize(ctx context.Context, tournamentID string, level domain.Level, entityID string) (domain.Positions, error) {
	allMatches, err := c.Matches.GetByEntity(ctx, tournamentID, level, entityID)
	if err != nil {
		return domain.Positions{}, fmt.Errorf("load matches: %w", err)
	}
	return c.finalizeEntity(ctx, tournamentID, level, entityID, allMatches)
}

// Positions returns the finalized 1/2/3 for one (level, entity), without
// attempting to finalize anything (spec.md §6 "tournament/positions").
func (c *Coordinator) Positions(ctx context.Context, tournamentID string, level domain.Level, entityID string) (domain.Positions, bool, error) {
	bracket, err := c.Brackets.Get(ctx, tournamentID)
	if err != nil {
		return domain.Positions{}, false, fmt.Errorf("load bracket: %w", err)
	}
	pos, ok := bracket.GetPositions(level, entityID)
	return pos, ok, nil
}

// AdvanceLevel initializes the next level up (county/regional/national)
// from the finishers of every entity at the level below — the promotion
// rule spec.md §4.6 describes, invoked by the "<level>/initialize"
// endpoints for county, regional, and national.
func (c *Coordinator) AdvanceLevel(ctx context.Context, tournamentID string, level domain.Level) (InitializeTournamentResult, error) {
	tournament, err := c.Tournaments.Get(ctx, tournamentID)
	if err != nil {
		return InitializeTournamentResult{}, fmt.Errorf("load tournament: %w", err)
	}

	lowerLevel, ok := resolver.LowerLevelOf(level)
	if !ok {
		return InitializeTournamentResult{}, fmt.Errorf("%w: level %s has no level below it", domain.ErrInvalidInput, level)
	}

	bracket, err := c.Brackets.Get(ctx, tournamentID)
	if err != nil {
		return InitializeTournamentResult{}, fmt.Errorf("load bracket: %w", err)
	}

	roster, err := c.Tournaments.RegisteredPlayers(ctx, tournamentID)
	if err != nil {
		return InitializeTournamentResult{}, fmt.Errorf("load registered players: %w", err)
	}

	var allFinishers []domain.Player
	for _, entityID := range resolver.Entities(lowerLevel, tournament.ParticipantScope) {
		pos, ok := bracket.GetPositions(lowerLevel, entityID)
		if !ok {
			continue
		}
		allFinishers = append(allFinishers, resolver.FinishersAt(lowerLevel, pos)...)
	}
	allFinishers = resolver.EnrichWithGeography(allFinishers, roster)

	entities := resolver.Entities(level, tournament.ParticipantScope)

	g, gctx := errgroup.WithContext(ctx)
	initialized := 0
	for _, entityID := range entities {
		entityID := entityID
		pool, err := resolver.PromotedPool(level, entityID, allFinishers)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientPlayers) {
				continue
			}
			return InitializeTournamentResult{}, err
		}
		initialized++
		g.Go(func() error {
			return c.initializeEntity(gctx, tournamentID, level, entityID, pool, tournament.SchedulingPreference)
		})
	}
	if err := g.Wait(); err != nil {
		return InitializeTournamentResult{}, err
	}

	return InitializeTournamentResult{EntitiesInitialized: initialized}, nil
}
