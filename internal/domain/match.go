package domain

import (
	"fmt"
	"time"
)

// MatchStatus mirrors the teacher's MatchStatus but adds the two statuses
// spec.md §3 names that the teacher's bracket service didn't need
// (cancelled, disputed) — a match's status may only move forward through
// scheduled -> live -> completed; cancelled/disputed are absorbing
// (spec.md §3 invariant 1).
type MatchStatus string

const (
	StatusScheduled MatchStatus = "scheduled"
	StatusLive      MatchStatus = "live"
	StatusCompleted MatchStatus = "completed"
	StatusCancelled MatchStatus = "cancelled"
	StatusDisputed  MatchStatus = "disputed"
)

// MatchType is the tagged sum spec.md §9 asks for: "Use a tagged sum
// MatchType ... and let the state machine dispatch on it. Do not scatter tag
// strings." Every matchType string that appears on the wire is one of these.
type MatchType string

const (
	MatchStandard          MatchType = "standard"
	MatchBye               MatchType = "bye"
	MatchAutoAdvancement   MatchType = "auto_advancement"
	MatchTwoPlayerFinal    MatchType = "two_player_final"
	MatchThreePlayerInitial MatchType = "three_player_initial"
	MatchThreePlayerFinal   MatchType = "three_player_final"
	MatchSemiFinal          MatchType = "semi_final"
	MatchWinnersFinal       MatchType = "winners_final"
	MatchLosersFinal        MatchType = "losers_final"
	MatchFinal              MatchType = "final"
	MatchDoubleDuty         MatchType = "double_duty"
	MatchLegacyWB           MatchType = "legacy_wb"
	MatchLegacyLB           MatchType = "legacy_lb"
	MatchLegacy3WS          MatchType = "legacy_3ws"
)

// ByeOpponentID is the literal sentinel id a bye opponent carries (spec.md §3
// invariant 3).
const ByeOpponentID = "BYE"

// PlayerRef is a (id, name, origin community) triple as carried on a match's
// player1/player2 fields (spec.md §3 "Match" table).
type PlayerRef struct {
	ID          string
	Name        string
	CommunityID string
}

// Match is the immutable-identity, mutable-result record spec.md §3 defines.
type Match struct {
	ID              string
	TournamentID    string
	TournamentLevel Level
	RoundNumber     int
	RoundLabel      string
	MatchNumber     int

	CommunityID string
	CountyID    string
	RegionID    string

	Player1 PlayerRef
	Player2 PlayerRef

	Player1Points int
	Player2Points int

	Status      MatchStatus
	MatchType   MatchType
	IsByeMatch  bool
	IsAutoAdvancement bool
	IsLevelFinal bool

	// DeterminesPositions carries the positions (subset of {1,2,3}) that
	// will be written when this match completes (spec.md §3).
	DeterminesPositions []int

	// WaitingPlayerID/Name carries the unpaired finalist in the 3-player
	// positioning scenario (spec.md §4.3 "Pool = 3").
	WaitingPlayerID   string
	WaitingPlayerName string

	SpecialMatch bool // double-duty / legacy-bracket flag surfaced to callers

	ScheduledDate string
	SchedulingMeta SchedulingMeta
	SearchableText string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SchedulingMeta is the Scheduler Annotator's output attached to every match
// (spec.md §6 "Scheduling annotation").
type SchedulingMeta struct {
	SuggestedDay         string
	DaysFromNow          int
	MatchesInRound       int
	SchedulingPreference string
	Level                Level
}

// MatchID builds the deterministic id grammar of spec.md §6:
// <RoundLabel>_<LevelPrefix>_<EntityId>_<Suffix>.
func MatchID(roundLabel string, level Level, entityID, suffix string) string {
	entity := entityID
	if entity == "" {
		entity = "NONE"
	}
	return fmt.Sprintf("%s_%s_%s_%s", roundLabel, level.Prefix(), entity, suffix)
}

// Completed reports whether a match's result may be read by the state
// machine: completed matches only (spec.md §3 invariant 1), bye matches
// count as completed (spec.md §4.4).
func (m Match) Completed() bool {
	return m.Status == StatusCompleted
}
