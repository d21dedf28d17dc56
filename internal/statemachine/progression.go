// Package statemachine implements the Progression State Machine (spec.md
// §4.4) and the Position Finalizer (spec.md §4.5). Both are deterministic,
// pure functions of the matches already persisted for one (tournamentId,
// level, entity) — they never talk to storage directly, so the package has
// no I/O and cannot block (spec.md §5: "The State Machine, Oracles, and
// Match Factory do not block").
package statemachine

import (
	"fmt"
	"sort"

	"github.com/cuesports/progression/internal/domain"
	"github.com/cuesports/progression/internal/engine"
)

// Action is the instruction the Coordinator must carry out next.
type Action string

const (
	ActionGenerateRound Action = "generate_round"
	ActionFinalize      Action = "finalize"
)

// Regime selects which Round Generator function produces the next round's
// matches — the tagged-sum dispatch spec.md §9 asks for ("Do not scatter tag
// strings").
type Regime string

const (
	RegimeStandard     Regime = "standard"
	RegimePool1        Regime = "pool1"
	RegimePool2        Regime = "pool2"
	RegimePool3Initial Regime = "pool3_initial"
	RegimePool3Final   Regime = "pool3_final"
	RegimePool4Semis   Regime = "pool4_semis"
	RegimePool4Finals  Regime = "pool4_finals"
	RegimePool4Final   Regime = "pool4_final"
)

// Decision is what the machine computed: either generate one more round, or
// finalize — never both (spec.md §4.4).
type Decision struct {
	Action Action

	RoundLabel          string
	RoundNumber         int
	Regime              Regime
	Pool                []domain.Player
	SourceMatches       []domain.Match
	IsFirstRound        bool
	BestLoserCandidates []domain.Player

	// WinnersFinalLabel and LosersFinalLabel are only populated for
	// RegimePool4Finals, which produces two matches under two distinct round
	// labels (e.g. "<Prefix>_WF" and "<Prefix>_LF") — RoundLabel alone cannot
	// carry both, so callers dispatching on this regime must use these
	// instead of RoundLabel.
	WinnersFinalLabel string
	LosersFinalLabel  string
}

// byRoundLabel groups a flat match list the way the store returns it
// (spec.md §3 invariant 5: rounds[level][entity][round] matches the
// persisted match set for that tuple) into round-label buckets.
func byRoundLabel(matches []domain.Match) map[string][]domain.Match {
	out := make(map[string][]domain.Match)
	for _, m := range matches {
		out[m.RoundLabel] = append(out[m.RoundLabel], m)
	}
	return out
}

func allCompleted(matches []domain.Match) bool {
	for _, m := range matches {
		if !m.Completed() {
			return false
		}
	}
	return len(matches) > 0
}

func incompleteIDs(matches []domain.Match) []string {
	var ids []string
	for _, m := range matches {
		if !m.Completed() {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// incompleteError builds the detailed PreviousRoundIncomplete spec.md §7
// requires: the list of incomplete match ids and the counts.
func incompleteError(roundLabel string, matches []domain.Match) error {
	completed := 0
	for _, m := range matches {
		if m.Completed() {
			completed++
		}
	}
	return &domain.IncompleteRoundError{
		RoundLabel:         roundLabel,
		IncompleteMatchIDs: incompleteIDs(matches),
		TotalMatches:       len(matches),
		CompletedMatches:   completed,
	}
}

// DecideInitial chooses the regime for the very first round given the
// entity's starting pool (spec.md §4.3: pools of 1-4 go straight to
// positioning; pools of 5+ start at "R1").
func DecideInitial(level domain.Level, pool []domain.Player) (Decision, error) {
	prefix := level.LabelPrefix()
	switch len(pool) {
	case 0:
		return Decision{}, fmt.Errorf("%w: empty pool", domain.ErrInsufficientPlayers)
	case 1:
		return Decision{Action: ActionGenerateRound, RoundLabel: prefix + "_Final", RoundNumber: 1, Regime: RegimePool1, Pool: pool}, nil
	case 2:
		return Decision{Action: ActionGenerateRound, RoundLabel: prefix + "_Final", RoundNumber: 1, Regime: RegimePool2, Pool: pool}, nil
	case 3:
		return Decision{Action: ActionGenerateRound, RoundLabel: prefix + "_Final", RoundNumber: 1, Regime: RegimePool3Initial, Pool: pool}, nil
	case 4:
		return Decision{Action: ActionGenerateRound, RoundLabel: prefix + "_SF", RoundNumber: 1, Regime: RegimePool4Semis, Pool: pool}, nil
	default:
		return Decision{Action: ActionGenerateRound, RoundLabel: "R1", RoundNumber: 1, Regime: RegimeStandard, Pool: pool, IsFirstRound: true}, nil
	}
}

// DecideNext recomputes the machine's state purely from the matches
// persisted so far for one (tournamentId, level, entity) and decides what
// happens next. allMatches is every match ever generated for this entity at
// this level, regardless of round. The caller-supplied currentRoundHint is
// advisory only — spec.md §4.4 requires the machine recompute the actual
// current round itself so that retries are idempotent.
func DecideNext(level domain.Level, allMatches []domain.Match, currentRoundHint string) (Decision, error) {
	_ = currentRoundHint // advisory only; the decision below is a pure function of allMatches.

	byLabel := byRoundLabel(allMatches)
	prefix := level.LabelPrefix()

	finalLabel := prefix + "_F"
	wfLabel := prefix + "_WF"
	lfLabel := prefix + "_LF"
	sfLabel := prefix + "_SF"
	threeOrLessLabel := prefix + "_Final"

	// 4-player pipeline, most-advanced state first.
	if matches, ok := byLabel[finalLabel]; ok {
		if allCompleted(matches) {
			return Decision{Action: ActionFinalize}, nil
		}
		return Decision{}, incompleteError(finalLabel, matches)
	}

	wfMatches, hasWF := byLabel[wfLabel]
	lfMatches, hasLF := byLabel[lfLabel]
	if hasWF && hasLF {
		if len(wfMatches) != 1 || len(lfMatches) != 1 {
			return Decision{}, fmt.Errorf("%w: expected exactly one winners_final and one losers_final match", domain.ErrUnexpectedPoolSize)
		}
		if !allCompleted(wfMatches) || !allCompleted(lfMatches) {
			combined := append(append([]domain.Match(nil), wfMatches...), lfMatches...)
			return Decision{}, incompleteError(wfLabel+"+"+lfLabel, combined)
		}
		return Decision{
			Action:        ActionGenerateRound,
			RoundLabel:    finalLabel,
			RoundNumber:   3,
			Regime:        RegimePool4Final,
			SourceMatches: []domain.Match{wfMatches[0], lfMatches[0]},
		}, nil
	}

	if sfMatches, ok := byLabel[sfLabel]; ok {
		if len(sfMatches) != 2 {
			return Decision{}, fmt.Errorf("%w: expected exactly two semi-final matches", domain.ErrUnexpectedPoolSize)
		}
		if !allCompleted(sfMatches) {
			return Decision{}, incompleteError(sfLabel, sfMatches)
		}
		sf1, sf2 := orderBySuffix(sfMatches)
		return Decision{
			Action:            ActionGenerateRound,
			RoundNumber:       2,
			Regime:            RegimePool4Finals,
			SourceMatches:     []domain.Match{sf1, sf2},
			WinnersFinalLabel: wfLabel,
			LosersFinalLabel:  lfLabel,
		}, nil
	}

	// 3-player / 2-player / 1-player pipeline: all share the "<Prefix>_Final" label.
	if finalMatches, ok := byLabel[threeOrLessLabel]; ok {
		initial, hasInitial := findBySuffix(finalMatches, "INITIAL")
		_, hasPos23 := findBySuffix(finalMatches, "POS23_FINAL")

		if hasInitial {
			if !hasPos23 {
				if !initial.Completed() {
					return Decision{}, incompleteError(threeOrLessLabel, finalMatches)
				}
				return Decision{
					Action:        ActionGenerateRound,
					RoundLabel:    threeOrLessLabel,
					RoundNumber:   2,
					Regime:        RegimePool3Final,
					SourceMatches: []domain.Match{initial},
				}, nil
			}
		}

		if allCompleted(finalMatches) {
			return Decision{Action: ActionFinalize}, nil
		}
		return Decision{}, incompleteError(threeOrLessLabel, finalMatches)
	}

	// The latest generated "Rn" must be fully completed before the next round
	// opens; otherwise report which of its matches are still outstanding.
	latestN, latestLabel := -1, ""
	for label := range byLabel {
		if n, ok := parseRn(label); ok && n > latestN {
			latestN, latestLabel = n, label
		}
	}
	if latestN >= 0 && !allCompleted(byLabel[latestLabel]) {
		return Decision{}, incompleteError(latestLabel, byLabel[latestLabel])
	}

	// Standard elimination pipeline: find the highest "Rn" whose matches are
	// all complete (spec.md §4.4 "Auto-detection of actual current round").
	highestN, highestMatches, found := highestCompletedRn(byLabel)
	if !found {
		return Decision{}, fmt.Errorf("%w: no completed round found for this entity", domain.ErrNoWinnersFound)
	}

	winners, losers := collectStandardRoundOutcome(highestMatches)
	if len(winners) == 0 {
		return Decision{}, fmt.Errorf("%w: round %s produced no winners", domain.ErrNoWinnersFound, fmt.Sprintf("R%d", highestN))
	}

	switch {
	case len(winners) >= 5:
		return Decision{
			Action:              ActionGenerateRound,
			RoundLabel:          fmt.Sprintf("R%d", highestN+1),
			RoundNumber:         highestN + 1,
			Regime:              RegimeStandard,
			Pool:                winners,
			IsFirstRound:        false,
			BestLoserCandidates: losers,
		}, nil
	case len(winners) == 4:
		return Decision{Action: ActionGenerateRound, RoundLabel: sfLabel, RoundNumber: highestN + 1, Regime: RegimePool4Semis, Pool: winners}, nil
	case len(winners) == 3:
		return Decision{Action: ActionGenerateRound, RoundLabel: threeOrLessLabel, RoundNumber: highestN + 1, Regime: RegimePool3Initial, Pool: winners}, nil
	case len(winners) == 2:
		return Decision{Action: ActionGenerateRound, RoundLabel: threeOrLessLabel, RoundNumber: highestN + 1, Regime: RegimePool2, Pool: winners}, nil
	case len(winners) == 1:
		// spec.md §9 open question 3: a direct single-winner "final" after an
		// elimination round is reachable only if odd-player-bucket counting
		// drifts. We refuse it rather than fabricate a match.
		return Decision{}, fmt.Errorf("%w: round R%d produced a single winner; refusing to fabricate a final", domain.ErrNoWinnersFound, highestN)
	default:
		return Decision{}, fmt.Errorf("%w: round R%d produced no winners", domain.ErrNoWinnersFound, highestN)
	}
}

// highestCompletedRn finds the highest-numbered "Rn" round label whose
// matches are all completed (spec.md §4.4: "among Rn labels, higher n wins").
func highestCompletedRn(byLabel map[string][]domain.Match) (int, []domain.Match, bool) {
	best := -1
	var bestMatches []domain.Match
	for label, matches := range byLabel {
		n, ok := parseRn(label)
		if !ok {
			continue
		}
		if !allCompleted(matches) {
			continue
		}
		if n > best {
			best = n
			bestMatches = matches
		}
	}
	if best < 0 {
		return 0, nil, false
	}
	return best, bestMatches, true
}

func parseRn(label string) (int, bool) {
	if len(label) < 2 || label[0] != 'R' {
		return 0, false
	}
	n := 0
	for _, c := range label[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// collectStandardRoundOutcome derives the distinct winners (and the losers,
// for best-performing-loser attachment) of a completed standard round. The
// double-duty match (spec.md §4.3, §9 "Variant matches") only ever
// contributes a winner if the originally-unpaired player (stored as
// Player1 by convention, see engine.GenerateStandardRound) wins it — if the
// already-paired opponent wins the rematch, their advancement was already
// decided by their own regular-pairing match, so the double-duty result
// does not additionally eliminate them.
func collectStandardRoundOutcome(matches []domain.Match) ([]domain.Player, []domain.Player) {
	seen := make(map[string]bool)
	var winners, losers []domain.Player

	for _, m := range matches {
		w := engine.WinnerOf(m)
		l := engine.LoserOf(m)
		if w.Undecided {
			continue
		}
		if m.MatchType == domain.MatchDoubleDuty && w.Player.ID != m.Player1.ID {
			// Already-paired opponent won the rematch; no new winner to add.
			continue
		}
		if !seen[w.Player.ID] {
			seen[w.Player.ID] = true
			winners = append(winners, toPlayer(w.Player))
		}
		if !l.Undecided {
			losers = append(losers, toPlayer(l.Player))
		}
	}

	sort.SliceStable(winners, func(i, j int) bool { return winners[i].ID < winners[j].ID })
	return winners, losers
}

func toPlayer(ref domain.PlayerRef) domain.Player {
	return domain.Player{ID: ref.ID, Name: ref.Name, CommunityID: ref.CommunityID}
}

func orderBySuffix(matches []domain.Match) (domain.Match, domain.Match) {
	sf1, ok1 := findBySuffix(matches, "SF1")
	sf2, ok2 := findBySuffix(matches, "SF2")
	if ok1 && ok2 {
		return sf1, sf2
	}
	return matches[0], matches[1]
}

func findBySuffix(matches []domain.Match, suffix string) (domain.Match, bool) {
	for _, m := range matches {
		if len(m.ID) >= len(suffix) && m.ID[len(m.ID)-len(suffix):] == suffix {
			return m, true
		}
	}
	return domain.Match{}, false
}
