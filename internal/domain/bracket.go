package domain

import "time"

// RoundStatus is the per-round-label state tracked in a bracket document
// (spec.md §3 "Bracket").
type RoundStatus string

const (
	RoundPending    RoundStatus = "pending"
	RoundInProgress RoundStatus = "in_progress"
	RoundCompleted  RoundStatus = "completed"
)

// Positions holds the 1/2/3 finishers for one entity. A nil entry means that
// position was never reached (e.g. position 3 in a 2-player pool).
type Positions struct {
	First  *PlayerRef
	Second *PlayerRef
	Third  *PlayerRef
}

// NonNilCount returns how many of {1,2,3} are populated.
func (p Positions) NonNilCount() int {
	n := 0
	if p.First != nil {
		n++
	}
	if p.Second != nil {
		n++
	}
	if p.Third != nil {
		n++
	}
	return n
}

// BracketLevelSummary is one entry of bracketLevels[level][entity]
// (spec.md §3 "Bracket").
type BracketLevelSummary struct {
	PlayerCount  int
	CurrentRound string
	Status       RoundStatus
}

// Bracket is the single per-tournament document spec.md §3 describes. The
// nested maps are level -> entityID -> ... exactly as spec'd; for national
// and special the entityID key is the constant NationalEntityID.
type Bracket struct {
	TournamentID string

	// Rounds: level -> entityID -> roundLabel -> ordered match ids.
	Rounds map[Level]map[string]map[string][]string

	// RoundStatus: "<level>/<entityID>/<roundLabel>" -> status. Flattened to
	// a single string key because Mongo field paths can't contain dots from
	// ids, and because updates are field-path updates per spec.md §5.
	RoundStatus map[string]RoundStatus

	BracketLevels map[Level]map[string]BracketLevelSummary

	// Positions: level -> entityID -> Positions.
	Positions map[Level]map[string]Positions

	AdvancementRules       map[string]string
	SpecialTournamentConfig map[string]string
	ParticipantScope       ParticipantScope

	CreatedAt   time.Time
	LastUpdated time.Time
}

// NationalEntityID is the synthetic single entity id used for the national
// level and for special tournaments, which have no geographic partition
// (spec.md §3 "Bracket": "For national, level -> {1,2,3}").
const NationalEntityID = "NATIONAL"

// NewBracket returns an empty, initialized bracket document ready for field
// updates.
func NewBracket(tournamentID string, scope ParticipantScope, now time.Time) *Bracket {
	return &Bracket{
		TournamentID:  tournamentID,
		Rounds:        make(map[Level]map[string]map[string][]string),
		RoundStatus:   make(map[string]RoundStatus),
		BracketLevels: make(map[Level]map[string]BracketLevelSummary),
		Positions:     make(map[Level]map[string]Positions),
		AdvancementRules: map[string]string{
			"positioningBelow": "5",
		},
		ParticipantScope: scope,
		CreatedAt:        now,
		LastUpdated:      now,
	}
}

// RoundStatusKey builds the flattened RoundStatus map key.
func RoundStatusKey(level Level, entityID, roundLabel string) string {
	return string(level) + "/" + entityID + "/" + roundLabel
}

// SetRoundMatches records the ordered match id list for (level, entity, round)
// — spec.md §3 invariant 5 requires this set to equal the persisted matches'
// ids for that tuple.
func (b *Bracket) SetRoundMatches(level Level, entityID, roundLabel string, matchIDs []string) {
	if b.Rounds[level] == nil {
		b.Rounds[level] = make(map[string]map[string][]string)
	}
	if b.Rounds[level][entityID] == nil {
		b.Rounds[level][entityID] = make(map[string][]string)
	}
	b.Rounds[level][entityID][roundLabel] = matchIDs
}

// SetPositions writes positions[level][entity] once (spec.md §3 invariant 6
// — callers must check GetPositions first unless re-finalizing explicitly).
func (b *Bracket) SetPositions(level Level, entityID string, pos Positions) {
	if b.Positions[level] == nil {
		b.Positions[level] = make(map[string]Positions)
	}
	b.Positions[level][entityID] = pos
}

// GetPositions returns the persisted positions for (level, entity), and
// whether any have been written yet.
func (b *Bracket) GetPositions(level Level, entityID string) (Positions, bool) {
	m, ok := b.Positions[level]
	if !ok {
		return Positions{}, false
	}
	p, ok := m[entityID]
	return p, ok
}

// ParticipantScope restricts which communities/counties/regions a tournament
// admits (spec.md §3 "Tournament configuration").
type ParticipantScope struct {
	CommunityIDs []string
	CountyIDs    []string
	RegionIDs    []string
}
