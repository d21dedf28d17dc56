// Package resolver implements the Entity Resolver (spec.md §2 item 6): it
// enumerates the entities a level partitions into and resolves the player
// pool each entity starts with, including the promotion of finishers carried
// up from the level below (spec.md §4.6).
package resolver

import (
	"fmt"
	"sort"

	"github.com/cuesports/progression/internal/domain"
	"github.com/cuesports/progression/internal/engine"
)

// Entities returns the distinct entity ids a level partitions a tournament
// into, scoped by the tournament's ParticipantScope. National and special
// tournaments have exactly one synthetic entity, domain.NationalEntityID.
func Entities(level domain.Level, scope domain.ParticipantScope) []string {
	switch level {
	case domain.LevelCommunity:
		return dedupeSorted(scope.CommunityIDs)
	case domain.LevelCounty:
		return dedupeSorted(scope.CountyIDs)
	case domain.LevelRegional:
		return dedupeSorted(scope.RegionIDs)
	default:
		return []string{domain.NationalEntityID}
	}
}

func dedupeSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// InitialPool resolves the starting pool for a community-level entity:
// every registered player whose CommunityID matches entityID (spec.md §4.1
// "Community level: partitioned by communityId").
func InitialPool(entityID string, registered []domain.Player) []domain.Player {
	var pool []domain.Player
	for _, p := range registered {
		if p.CommunityID == entityID {
			pool = append(pool, p)
		}
	}
	return pool
}

// PromotedPool resolves the pool for a county/regional/national entity by
// collecting the finishers promoted from the level directly below, per
// spec.md §4.6's promotion rule: every position-1/2/3 finisher at the lower
// level whose geography rolls up into entityID is promoted, ordered 1s then
// 2s then 3s (engine.OrderWinnersByPriorPosition).
//
// lowerFinishers must already carry the appropriate *Position field set by
// the caller (e.g. CommunityPosition for promotion into county) and the
// geography field the next level partitions by (e.g. CountyID).
func PromotedPool(level domain.Level, entityID string, lowerFinishers []domain.Player) ([]domain.Player, error) {
	fromLevel, ok := LowerLevelOf(level)
	if !ok {
		return nil, fmt.Errorf("%w: level %s has no level below it to promote from", domain.ErrInvalidInput, level)
	}

	var pool []domain.Player
	for _, p := range lowerFinishers {
		if entityFieldValue(level, entityID, p) {
			pool = append(pool, p)
		}
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: no finishers promoted into %s/%s", domain.ErrInsufficientPlayers, level, entityID)
	}
	return engine.OrderWinnersByPriorPosition(pool, fromLevel), nil
}

// LowerLevelOf returns the level directly below level in the promotion
// chain (spec.md §4.6), and whether one exists.
func LowerLevelOf(level domain.Level) (domain.Level, bool) {
	switch level {
	case domain.LevelCounty:
		return domain.LevelCommunity, true
	case domain.LevelRegional:
		return domain.LevelCounty, true
	case domain.LevelNational:
		return domain.LevelRegional, true
	default:
		return "", false
	}
}

// entityFieldValue reports whether player p belongs to entityID at the
// level being promoted into — i.e. p's CountyID matches when promoting into
// county, RegionID when promoting into regional, or always true when
// promoting into the single national entity.
func entityFieldValue(level domain.Level, entityID string, p domain.Player) bool {
	switch level {
	case domain.LevelCounty:
		return p.CountyID == entityID
	case domain.LevelRegional:
		return p.RegionID == entityID
	case domain.LevelNational:
		return entityID == domain.NationalEntityID
	default:
		return false
	}
}

// FinishersAt extracts the position-1/2/3 finishers of one (level, entity)
// from its finalized Positions, tagging each with the *Position field the
// next level up will promote on (spec.md §4.6).
func FinishersAt(level domain.Level, pos domain.Positions) []domain.Player {
	var out []domain.Player
	one, two, three := 1, 2, 3

	appendFinisher := func(ref *domain.PlayerRef, position *int) {
		if ref == nil {
			return
		}
		p := domain.Player{ID: ref.ID, Name: ref.Name, CommunityID: ref.CommunityID}
		switch level {
		case domain.LevelCommunity:
			p.CommunityPosition = position
		case domain.LevelCounty:
			p.CountyPosition = position
		case domain.LevelRegional:
			p.RegionalPosition = position
		}
		out = append(out, p)
	}

	appendFinisher(pos.First, &one)
	appendFinisher(pos.Second, &two)
	appendFinisher(pos.Third, &three)
	return out
}

// EnrichWithGeography fills in the CountyID/RegionID that FinishersAt cannot
// know, since domain.PlayerRef (and thus a finalized Positions entry) only
// carries CommunityID. The caller joins the finisher list against the full
// registered-player roster by id before handing it to PromotedPool, so
// entityFieldValue can route a community finisher into the right county and
// a county finisher into the right region.
func EnrichWithGeography(finishers []domain.Player, roster []domain.Player) []domain.Player {
	byID := make(map[string]domain.Player, len(roster))
	for _, p := range roster {
		byID[p.ID] = p
	}

	out := make([]domain.Player, len(finishers))
	for i, f := range finishers {
		full, ok := byID[f.ID]
		if !ok {
			out[i] = f
			continue
		}
		full.CommunityPosition = f.CommunityPosition
		full.CountyPosition = f.CountyPosition
		full.RegionalPosition = f.RegionalPosition
		out[i] = full
	}
	return out
}
