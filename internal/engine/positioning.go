package engine

import (
	"fmt"
	"time"

	"github.com/cuesports/progression/internal/domain"
)

// Small-field positioning regimes (spec.md §4.3). These replace an ordinary
// knockout whenever the remaining pool is 1, 2, 3, or 4 players, because in
// these cases top-3 can be determined deterministically with the fewest
// matches and without a third-place playoff.

// PositioningPool1 emits one pre-completed auto_advancement match; the live
// player receives position 1; no further rounds.
func PositioningPool1(tournamentID string, level domain.Level, entityID, roundLabel string, pool []domain.Player, now time.Time) (domain.Match, error) {
	if len(pool) != 1 {
		return domain.Match{}, fmt.Errorf("%w: pool-1 positioning requires exactly 1 player, got %d", domain.ErrUnexpectedPoolSize, len(pool))
	}
	p := playerRef(pool[0])
	in := MatchInput{
		TournamentID: tournamentID,
		Level:        level,
		EntityID:     entityID,
		RoundLabel:   roundLabel,
		RoundNumber:  1,
		MatchNumber:  1,
		Suffix:       "AUTO_POS1",
		MatchType:    domain.MatchAutoAdvancement,
	}
	m, err := NewByeMatch(in, p, now)
	if err != nil {
		return domain.Match{}, err
	}
	m.MatchType = domain.MatchAutoAdvancement
	m.IsAutoAdvancement = true
	m.IsLevelFinal = true
	m.DeterminesPositions = []int{1}
	return m, nil
}

// PositioningPool2 emits one two_player_final match. Winner is position 1,
// loser is position 2; position 3 is null.
func PositioningPool2(tournamentID string, level domain.Level, entityID, roundLabel string, pool []domain.Player, now time.Time) (domain.Match, error) {
	if len(pool) != 2 {
		return domain.Match{}, fmt.Errorf("%w: pool-2 positioning requires exactly 2 players, got %d", domain.ErrUnexpectedPoolSize, len(pool))
	}
	in := MatchInput{
		TournamentID: tournamentID,
		Level:        level,
		EntityID:     entityID,
		RoundLabel:   roundLabel,
		RoundNumber:  1,
		MatchNumber:  1,
		Suffix:       "TWO_PLAYER_FINAL",
		MatchType:    domain.MatchTwoPlayerFinal,
	}
	m, err := NewMatch(withPlayers(in, pool[0], pool[1]), now)
	if err != nil {
		return domain.Match{}, err
	}
	m.IsLevelFinal = true
	m.DeterminesPositions = []int{1, 2}
	return m, nil
}

// PositioningThreePlayerInitial emits match A: two randomly chosen players,
// the third carried as the waiting player (spec.md §4.3 "Pool = 3").
func PositioningThreePlayerInitial(tournamentID string, level domain.Level, entityID, roundLabel string, pool []domain.Player, shuffler Shuffler, now time.Time) (domain.Match, error) {
	if len(pool) != 3 {
		return domain.Match{}, fmt.Errorf("%w: three-player positioning requires exactly 3 players, got %d", domain.ErrUnexpectedPoolSize, len(pool))
	}
	shuffled := append([]domain.Player(nil), pool...)
	ShufflePlayers(shuffler, shuffled)

	in := MatchInput{
		TournamentID: tournamentID,
		Level:        level,
		EntityID:     entityID,
		RoundLabel:   roundLabel,
		RoundNumber:  1,
		MatchNumber:  1,
		Suffix:       "INITIAL",
		MatchType:    domain.MatchThreePlayerInitial,
	}
	m, err := NewMatch(withPlayers(in, shuffled[0], shuffled[1]), now)
	if err != nil {
		return domain.Match{}, err
	}
	m.WaitingPlayerID = shuffled[2].ID
	m.WaitingPlayerName = shuffled[2].Name
	m.DeterminesPositions = []int{1}
	return m, nil
}

// PositioningThreePlayerFinal builds match B after match A completes: loser
// of A vs the carried waiting player. Winner -> position 2, loser -> position 3.
func PositioningThreePlayerFinal(tournamentID string, level domain.Level, entityID, roundLabel string, matchA domain.Match, now time.Time) (domain.Match, error) {
	loser := LoserOf(matchA)
	if loser.Undecided {
		return domain.Match{}, fmt.Errorf("%w: initial three-player match not decided", domain.ErrNoWinnersFound)
	}
	if matchA.WaitingPlayerID == "" {
		return domain.Match{}, fmt.Errorf("%w: initial three-player match has no waiting player", domain.ErrMissingPositioningMatches)
	}
	waiting := domain.PlayerRef{ID: matchA.WaitingPlayerID, Name: matchA.WaitingPlayerName, CommunityID: matchA.CommunityID}

	in := MatchInput{
		TournamentID: tournamentID,
		Level:        level,
		EntityID:     entityID,
		RoundLabel:   roundLabel,
		RoundNumber:  2,
		MatchNumber:  1,
		Suffix:       "POS23_FINAL",
		MatchType:    domain.MatchThreePlayerFinal,
		Player1:      loser.Player,
		Player2:      waiting,
	}
	m, err := NewMatch(in, now)
	if err != nil {
		return domain.Match{}, err
	}
	m.IsLevelFinal = true
	m.DeterminesPositions = []int{2, 3}
	return m, nil
}

// PositioningFourPlayerSemis emits the two semi-finals for a 4-player pool,
// randomly paired (spec.md §4.3 "Pool = 4", step 1).
func PositioningFourPlayerSemis(tournamentID string, level domain.Level, entityID, roundLabel string, pool []domain.Player, shuffler Shuffler, now time.Time) ([]domain.Match, error) {
	if len(pool) != 4 {
		return nil, fmt.Errorf("%w: four-player positioning requires exactly 4 players, got %d", domain.ErrUnexpectedPoolSize, len(pool))
	}
	shuffled := append([]domain.Player(nil), pool...)
	ShufflePlayers(shuffler, shuffled)

	sf1In := MatchInput{
		TournamentID: tournamentID, Level: level, EntityID: entityID,
		RoundLabel: roundLabel, RoundNumber: 1, MatchNumber: 1,
		Suffix: "SF1", MatchType: domain.MatchSemiFinal,
	}
	sf1, err := NewMatch(withPlayers(sf1In, shuffled[0], shuffled[1]), now)
	if err != nil {
		return nil, err
	}
	sf2In := MatchInput{
		TournamentID: tournamentID, Level: level, EntityID: entityID,
		RoundLabel: roundLabel, RoundNumber: 1, MatchNumber: 2,
		Suffix: "SF2", MatchType: domain.MatchSemiFinal,
	}
	sf2, err := NewMatch(withPlayers(sf2In, shuffled[2], shuffled[3]), now)
	if err != nil {
		return nil, err
	}
	return []domain.Match{sf1, sf2}, nil
}

// PositioningFourPlayerFinals builds winners_final (SF1 winner vs SF2 winner)
// and losers_final (SF1 loser vs SF2 loser) once both semis complete
// (spec.md §4.3 "Pool = 4", step 2). The two matches carry distinct round
// labels (e.g. "<Level>_WF" and "<Level>_LF") per the grammar spec.md §8
// scenario A exercises.
func PositioningFourPlayerFinals(tournamentID string, level domain.Level, entityID, wfRoundLabel, lfRoundLabel string, sf1, sf2 domain.Match, now time.Time) (winnersFinal, losersFinal domain.Match, err error) {
	w1, w2 := WinnerOf(sf1), WinnerOf(sf2)
	l1, l2 := LoserOf(sf1), LoserOf(sf2)
	if w1.Undecided || w2.Undecided || l1.Undecided || l2.Undecided {
		return domain.Match{}, domain.Match{}, fmt.Errorf("%w: both semi-finals must be decided", domain.ErrNoWinnersFound)
	}

	wfIn := MatchInput{
		TournamentID: tournamentID, Level: level, EntityID: entityID,
		RoundLabel: wfRoundLabel, RoundNumber: 2, MatchNumber: 1,
		Suffix: "WINNERS_FINAL", MatchType: domain.MatchWinnersFinal,
		Player1: w1.Player, Player2: w2.Player,
	}
	winnersFinal, err = NewMatch(wfIn, now)
	if err != nil {
		return domain.Match{}, domain.Match{}, err
	}

	lfIn := MatchInput{
		TournamentID: tournamentID, Level: level, EntityID: entityID,
		RoundLabel: lfRoundLabel, RoundNumber: 2, MatchNumber: 1,
		Suffix: "LOSERS_FINAL", MatchType: domain.MatchLosersFinal,
		Player1: l1.Player, Player2: l2.Player,
	}
	losersFinal, err = NewMatch(lfIn, now)
	if err != nil {
		return domain.Match{}, domain.Match{}, err
	}
	return winnersFinal, losersFinal, nil
}

// PositioningFourPlayerFinal builds the final match once both winners_final
// and losers_final complete: loser of winners_final vs winner of
// losers_final. Winner -> position 2, loser -> position 3. The losers_final
// loser is eliminated and never holds a position (spec.md §4.3, step 3-4).
func PositioningFourPlayerFinal(tournamentID string, level domain.Level, entityID, roundLabel string, winnersFinal, losersFinal domain.Match, now time.Time) (domain.Match, error) {
	wfLoser := LoserOf(winnersFinal)
	lfWinner := WinnerOf(losersFinal)
	if wfLoser.Undecided || lfWinner.Undecided {
		return domain.Match{}, fmt.Errorf("%w: winners_final and losers_final must both be decided", domain.ErrNoWinnersFound)
	}

	in := MatchInput{
		TournamentID: tournamentID, Level: level, EntityID: entityID,
		RoundLabel: roundLabel, RoundNumber: 3, MatchNumber: 1,
		Suffix: "FINAL", MatchType: domain.MatchFinal,
		Player1: wfLoser.Player, Player2: lfWinner.Player,
	}
	m, err := NewMatch(in, now)
	if err != nil {
		return domain.Match{}, err
	}
	m.IsLevelFinal = true
	m.DeterminesPositions = []int{2, 3}
	return m, nil
}

func playerRef(p domain.Player) domain.PlayerRef {
	return domain.PlayerRef{ID: p.ID, Name: p.Name, CommunityID: p.CommunityID}
}

func withPlayers(in MatchInput, p1, p2 domain.Player) MatchInput {
	in.Player1 = playerRef(p1)
	in.Player2 = playerRef(p2)
	return in
}
