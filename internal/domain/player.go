package domain

import "fmt"

// Player is a tournament registrant, or a finisher carried up from the level
// below. Positions are set by whichever level the player finished at.
type Player struct {
	ID          string
	Name        string
	CommunityID string
	CountyID    string
	RegionID    string
	Avatar      string
	SkillRating *int // carried on the record, ignored by the core (spec.md §1 Non-goals)

	// Prior-level finishing position, set by Promotion (spec.md §4.6). Only
	// one of these is populated at a time, matching the level the player is
	// being promoted out of.
	CommunityPosition *int
	CountyPosition    *int
	RegionalPosition  *int

	// TotalPoints/AverageScore back the "best performing loser" tie-break
	// (spec.md §4.3, §9 open question 4). Nothing in this module fills them
	// in from match history; while they are nil the tie-break falls back to
	// lexicographic name order.
	TotalPoints  *int
	AverageScore *float64
}

// PriorPosition returns the position this player carries from the level it
// is being promoted out of, keyed by that level, and whether one is set.
func (p Player) PriorPosition(fromLevel Level) (int, bool) {
	switch fromLevel {
	case LevelCommunity:
		if p.CommunityPosition != nil {
			return *p.CommunityPosition, true
		}
	case LevelCounty:
		if p.CountyPosition != nil {
			return *p.CountyPosition, true
		}
	case LevelRegional:
		if p.RegionalPosition != nil {
			return *p.RegionalPosition, true
		}
	}
	return 0, false
}

// ResolveName implements spec.md §3's player name resolution: the first
// present of playerName/displayName/fullName/name, else "Player_<last6>".
// Raw fields are provided in priority order by the caller (typically the
// store's deserializer, which has access to whichever JSON key was present).
func ResolveName(id string, candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	if len(id) >= 6 {
		return fmt.Sprintf("Player_%s", id[len(id)-6:])
	}
	return fmt.Sprintf("Player_%s", id)
}
