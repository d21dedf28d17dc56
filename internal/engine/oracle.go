// Package engine implements the pure, I/O-free parts of the progression
// core: the Winner/Loser Oracle, the Match Factory, the Round Generator
// (standard pairing and small-field positioning), and the Scheduler
// Annotator (spec.md §4.1-§4.3, §6).
package engine

import (
	"github.com/cuesports/progression/internal/domain"
)

// Decision is the outcome of the oracle: a resolved player, or Undecided.
type Decision struct {
	Player    domain.PlayerRef
	Undecided bool
}

// WinnerOf derives the winner of a match solely from player1Points vs
// player2Points (spec.md §4.2). It never reads or writes a winnerId/loserId
// field — those exist in the persisted shape for UI only.
func WinnerOf(m domain.Match) Decision {
	if !decidable(m) {
		return Decision{Undecided: true}
	}
	if m.Player1Points > m.Player2Points {
		return Decision{Player: m.Player1}
	}
	return Decision{Player: m.Player2}
}

// LoserOf derives the loser of a match by the same rule as WinnerOf.
func LoserOf(m domain.Match) Decision {
	if !decidable(m) {
		return Decision{Undecided: true}
	}
	if m.Player1Points > m.Player2Points {
		return Decision{Player: m.Player2}
	}
	return Decision{Player: m.Player1}
}

// decidable reports whether a match's winner/loser can be derived at all:
// it must be completed, both player ids must be present, and points must
// differ (spec.md §4.2).
func decidable(m domain.Match) bool {
	if m.Status != domain.StatusCompleted {
		return false
	}
	if m.Player1.ID == "" || m.Player2.ID == "" {
		return false
	}
	if m.Player1Points == m.Player2Points {
		return false
	}
	return true
}
