package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/cuesports/progression/internal/domain"
)

// StandardRoundInput describes one standard elimination round (pool >= 5,
// spec.md §4.3 "Pool >= 5: standard elimination round").
type StandardRoundInput struct {
	TournamentID string
	Level        domain.Level
	EntityID     string
	RoundLabel   string
	RoundNumber  int
	Pool         []domain.Player
	IsFirstRound bool
	Shuffler     Shuffler

	// BestLoserCandidates, when non-empty, are the losers of the
	// immediately-prior round the generator may attach to an odd pool on a
	// non-initial round (spec.md §4.3 "Ordering and tie-breaks"). Ignored
	// when IsFirstRound is true — double-duty, not bye-via-best-loser,
	// handles the first round's odd player.
	BestLoserCandidates []domain.Player
}

// GenerateStandardRound shuffles the pool, pairs consecutively, and handles
// the odd-player-out per spec.md §4.3:
//   - first round, pool odd and > 3: double-duty (unpaired player plays an
//     already-paired player a second time, flagged)
//   - any subsequent round, or any small odd pool: bye, optionally preceded
//     by attaching the best-performing loser of the prior round so the pool
//     becomes even before pairing.
func GenerateStandardRound(in StandardRoundInput, now time.Time) ([]domain.Match, error) {
	if len(in.Pool) < 5 {
		return nil, fmt.Errorf("%w: standard round requires pool >= 5, got %d", domain.ErrUnexpectedPoolSize, len(in.Pool))
	}
	if err := checkDuplicates(in.Pool); err != nil {
		return nil, err
	}

	pool := append([]domain.Player(nil), in.Pool...)

	// Non-initial rounds: attach the best-performing loser to make an odd
	// pool even before pairing (spec.md §4.3).
	if !in.IsFirstRound && len(pool)%2 == 1 && len(in.BestLoserCandidates) > 0 {
		best := BestPerformingLoser(in.BestLoserCandidates)
		pool = append(pool, best)
	}

	ShufflePlayers(in.Shuffler, pool)

	var matches []domain.Match
	matchNum := 1
	i := 0
	for ; i+1 < len(pool); i += 2 {
		in2 := MatchInput{
			TournamentID: in.TournamentID, Level: in.Level, EntityID: in.EntityID,
			RoundLabel: in.RoundLabel, RoundNumber: in.RoundNumber, MatchNumber: matchNum,
			Suffix: fmt.Sprintf("match_%d", matchNum), MatchType: domain.MatchStandard,
		}
		m, err := NewMatch(withPlayers(in2, pool[i], pool[i+1]), now)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
		matchNum++
	}

	if i < len(pool) {
		unpaired := pool[i]
		if in.IsFirstRound && len(pool) > 3 {
			// Double-duty: the unpaired player plays a randomly chosen
			// already-paired player a second time.
			if len(matches) == 0 {
				return nil, fmt.Errorf("%w: double-duty requires at least one paired match", domain.ErrUnexpectedPoolSize)
			}
			pick := pickDoubleDutyOpponent(in.Shuffler, matches)
			in2 := MatchInput{
				TournamentID: in.TournamentID, Level: in.Level, EntityID: in.EntityID,
				RoundLabel: in.RoundLabel, RoundNumber: in.RoundNumber, MatchNumber: matchNum,
				Suffix: fmt.Sprintf("match_%d", matchNum), MatchType: domain.MatchDoubleDuty,
			}
			m, err := NewMatch(withPlayers(in2, unpaired, pick), now)
			if err != nil {
				return nil, err
			}
			m.SpecialMatch = true
			matches = append(matches, m)
		} else {
			// Bye.
			in2 := MatchInput{
				TournamentID: in.TournamentID, Level: in.Level, EntityID: in.EntityID,
				RoundLabel: in.RoundLabel, RoundNumber: in.RoundNumber, MatchNumber: matchNum,
				Suffix: fmt.Sprintf("bye_%d", matchNum), MatchType: domain.MatchBye,
			}
			m, err := NewByeMatch(in2, playerRef(unpaired), now)
			if err != nil {
				return nil, err
			}
			matches = append(matches, m)
		}
	}

	return matches, nil
}

// pickDoubleDutyOpponent randomly selects one already-paired player from the
// matches generated so far to play a second match against the odd player out.
func pickDoubleDutyOpponent(s Shuffler, matches []domain.Match) domain.Player {
	candidates := make([]domain.Player, 0, len(matches)*2)
	for _, m := range matches {
		candidates = append(candidates,
			domain.Player{ID: m.Player1.ID, Name: m.Player1.Name, CommunityID: m.Player1.CommunityID},
			domain.Player{ID: m.Player2.ID, Name: m.Player2.Name, CommunityID: m.Player2.CommunityID},
		)
	}
	ShufflePlayers(s, candidates)
	return candidates[0]
}

// checkDuplicates rejects a pool containing the same player id twice
// (spec.md §3 invariant 8: no match pairs two instances of the same player,
// except the deliberate double-duty case, which this check is not applied to
// since double-duty is constructed explicitly above, not from a duplicated
// pool entry).
func checkDuplicates(pool []domain.Player) error {
	seen := make(map[string]bool, len(pool))
	for _, p := range pool {
		if seen[p.ID] {
			return fmt.Errorf("%w: player %s appears twice in pool", domain.ErrDuplicatePlayer, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// BestPerformingLoser ranks candidates by (i) highest total points, (ii)
// highest average points per match, (iii) lexicographic name — spec.md §4.3
// "Ordering and tie-breaks". When TotalPoints/AverageScore are unpopulated
// (spec.md §9 open question 4), this falls back to lexicographic name order
// deterministically rather than fabricating statistics.
func BestPerformingLoser(candidates []domain.Player) domain.Player {
	ranked := append([]domain.Player(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		at, aok := pointsOf(a)
		bt, bok := pointsOf(b)
		if aok && bok && at != bt {
			return at > bt
		}
		aa, aaok := avgOf(a)
		bb, bbok := avgOf(b)
		if aaok && bbok && aa != bb {
			return aa > bb
		}
		return a.Name < b.Name
	})
	return ranked[0]
}

func pointsOf(p domain.Player) (int, bool) {
	if p.TotalPoints == nil {
		return 0, false
	}
	return *p.TotalPoints, true
}

func avgOf(p domain.Player) (float64, bool) {
	if p.AverageScore == nil {
		return 0, false
	}
	return *p.AverageScore, true
}

// OrderWinnersByPriorPosition sorts promoted players ascending by the
// position they carried from the level below (1s first, then 2s, then 3s),
// as spec.md §4.3 "Ordering and tie-breaks" and §4.6 "Promotion rule" require.
func OrderWinnersByPriorPosition(players []domain.Player, fromLevel domain.Level) []domain.Player {
	ordered := append([]domain.Player(nil), players...)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, oki := ordered[i].PriorPosition(fromLevel)
		pj, okj := ordered[j].PriorPosition(fromLevel)
		if oki && okj && pi != pj {
			return pi < pj
		}
		if oki != okj {
			return oki
		}
		return ordered[i].Name < ordered[j].Name
	})
	return ordered
}
