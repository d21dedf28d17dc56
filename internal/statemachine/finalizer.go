package statemachine

import (
	"fmt"

	"github.com/cuesports/progression/internal/domain"
	"github.com/cuesports/progression/internal/engine"
)

// Finalize derives positions 1/2/3 for one (level, entity) from its
// final-phase matches, using the Winner/Loser Oracle only (spec.md §4.5).
// existing, if alreadyFinalized is true, is returned unchanged — re-running finalize on an
// already-finalized entity is a no-op (spec.md §4.5, §7, §8).
func Finalize(level domain.Level, allMatches []domain.Match, existing domain.Positions, alreadyFinalized bool) (domain.Positions, error) {
	if alreadyFinalized {
		return existing, nil
	}

	byLabel := byRoundLabel(allMatches)
	prefix := level.LabelPrefix()

	// Pool 4: final-phase matches are SF1, SF2, WF, LF, F. Position 1 comes
	// from the final's winner? No — per spec.md §4.3, position 1 is fixed
	// once winners_final completes (its winner); the final match decides 2/3.
	if finalMatches, ok := byLabel[prefix+"_F"]; ok {
		wfMatches := byLabel[prefix+"_WF"]
		if len(finalMatches) != 1 || len(wfMatches) != 1 {
			return domain.Positions{}, fmt.Errorf("%w: four-player final requires one winners_final and one final match", domain.ErrMissingPositioningMatches)
		}
		wf := wfMatches[0]
		final := finalMatches[0]
		if !wf.Completed() || !final.Completed() {
			return domain.Positions{}, fmt.Errorf("%w: positioning matches not yet completed", domain.ErrMissingPositioningMatches)
		}

		first := engine.WinnerOf(wf)
		second := engine.WinnerOf(final)
		third := engine.LoserOf(final)
		if first.Undecided {
			return domain.Positions{}, fmt.Errorf("%w: winners_final tied", domain.ErrTieUndecidable)
		}
		if second.Undecided || third.Undecided {
			return domain.Positions{}, fmt.Errorf("%w: final tied", domain.ErrTieUndecidable)
		}

		return domain.Positions{
			First:  refPtr(first.Player),
			Second: refPtr(second.Player),
			Third:  refPtr(third.Player),
		}, nil
	}

	// Pool 3 / 2 / 1: all share "<Prefix>_Final".
	if finalMatches, ok := byLabel[prefix+"_Final"]; ok {
		initial, hasInitial := findBySuffix(finalMatches, "INITIAL")
		pos23, hasPos23 := findBySuffix(finalMatches, "POS23_FINAL")
		twoPlayer, hasTwoPlayer := findBySuffix(finalMatches, "TWO_PLAYER_FINAL")
		auto, hasAuto := findBySuffix(finalMatches, "AUTO_POS1")

		switch {
		case hasInitial && hasPos23:
			if !initial.Completed() || !pos23.Completed() {
				return domain.Positions{}, fmt.Errorf("%w: three-player positioning matches not yet completed", domain.ErrMissingPositioningMatches)
			}
			first := engine.WinnerOf(initial)
			second := engine.WinnerOf(pos23)
			third := engine.LoserOf(pos23)
			if first.Undecided {
				return domain.Positions{}, fmt.Errorf("%w: initial three-player match tied", domain.ErrTieUndecidable)
			}
			if second.Undecided || third.Undecided {
				return domain.Positions{}, fmt.Errorf("%w: three-player final tied", domain.ErrTieUndecidable)
			}
			return domain.Positions{First: refPtr(first.Player), Second: refPtr(second.Player), Third: refPtr(third.Player)}, nil

		case hasTwoPlayer:
			if !twoPlayer.Completed() {
				return domain.Positions{}, fmt.Errorf("%w: two-player final not yet completed", domain.ErrMissingPositioningMatches)
			}
			first := engine.WinnerOf(twoPlayer)
			second := engine.LoserOf(twoPlayer)
			if first.Undecided || second.Undecided {
				return domain.Positions{}, fmt.Errorf("%w: two-player final tied", domain.ErrTieUndecidable)
			}
			return domain.Positions{First: refPtr(first.Player), Second: refPtr(second.Player)}, nil

		case hasAuto:
			if !auto.Completed() {
				return domain.Positions{}, fmt.Errorf("%w: auto-advancement match not yet completed", domain.ErrMissingPositioningMatches)
			}
			first := engine.WinnerOf(auto)
			if first.Undecided {
				return domain.Positions{}, fmt.Errorf("%w: auto-advancement match has no winner", domain.ErrMissingPositioningMatches)
			}
			return domain.Positions{First: refPtr(first.Player)}, nil
		}
	}

	return domain.Positions{}, fmt.Errorf("%w: no terminal positioning matches found for this entity", domain.ErrMissingPositioningMatches)
}

func refPtr(ref domain.PlayerRef) *domain.PlayerRef {
	r := ref
	return &r
}
