package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/cuesports/progression/internal/domain"
)

// MatchInput is the typed input the Match Factory accepts (spec.md §4.1).
type MatchInput struct {
	TournamentID string
	Level        domain.Level
	EntityID     string // communityId/countyId/regionId, or "" for national/special
	RoundLabel   string
	RoundNumber  int
	MatchNumber  int
	Suffix       string
	MatchType    domain.MatchType
	Player1      domain.PlayerRef
	Player2      domain.PlayerRef
}

// NewMatch materializes a fully populated, scheduled-status, zero-point match
// record from typed inputs (spec.md §4.1). Deterministic given inputs; no I/O.
// Fails with ErrInvalidInput if either player id is empty.
func NewMatch(in MatchInput, now time.Time) (domain.Match, error) {
	if in.Player1.ID == "" || in.Player2.ID == "" {
		return domain.Match{}, fmt.Errorf("%w: both player ids required", domain.ErrInvalidInput)
	}

	m := buildShell(in, now)
	m.Status = domain.StatusScheduled
	return m, nil
}

// NewByeMatch builds a pre-completed bye match: the live player is awarded
// canonical win points (3-0), the opponent id is the literal "BYE" (spec.md
// §3 invariant 3, §4.1).
func NewByeMatch(in MatchInput, livePlayer domain.PlayerRef, now time.Time) (domain.Match, error) {
	if livePlayer.ID == "" {
		return domain.Match{}, fmt.Errorf("%w: bye match requires a live player", domain.ErrInvalidInput)
	}
	in.Player1 = livePlayer
	in.Player2 = domain.PlayerRef{ID: domain.ByeOpponentID, Name: "BYE"}
	in.MatchType = domain.MatchBye

	m := buildShell(in, now)
	m.Status = domain.StatusCompleted
	m.IsByeMatch = true
	m.Player1Points = 3
	m.Player2Points = 0
	return m, nil
}

func buildShell(in MatchInput, now time.Time) domain.Match {
	id := domain.MatchID(in.RoundLabel, in.Level, in.EntityID, in.Suffix)

	m := domain.Match{
		ID:              id,
		TournamentID:    in.TournamentID,
		TournamentLevel: in.Level,
		RoundNumber:     in.RoundNumber,
		RoundLabel:      in.RoundLabel,
		MatchNumber:     in.MatchNumber,
		Player1:         in.Player1,
		Player2:         in.Player2,
		MatchType:       in.MatchType,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	switch in.Level {
	case domain.LevelCommunity:
		m.CommunityID = in.EntityID
	case domain.LevelCounty:
		m.CountyID = in.EntityID
	case domain.LevelRegional:
		m.RegionID = in.EntityID
	}

	m.SearchableText = strings.ToLower(strings.Join([]string{
		in.Player1.Name, in.Player2.Name, in.TournamentID, in.EntityID, string(in.Level),
	}, " "))

	return m
}
