package engine

import (
	"errors"
	"testing"

	"github.com/cuesports/progression/internal/domain"
)

func poolOf(n int) []domain.Player {
	out := make([]domain.Player, n)
	for i := range out {
		out[i] = domain.Player{ID: randomID(i), Name: randomID(i), CommunityID: "comm-1"}
	}
	return out
}

func randomID(i int) string {
	return "player-" + string(rune('A'+i))
}

func TestGenerateStandardRound_RejectsPoolBelowFive(t *testing.T) {
	shuffler := NewSeededShuffler("t1", "community", "comm-1", "R1")
	_, err := GenerateStandardRound(StandardRoundInput{
		TournamentID: "t1", Level: domain.LevelCommunity, EntityID: "comm-1",
		RoundLabel: "R1", RoundNumber: 1, Pool: poolOf(4), IsFirstRound: true, Shuffler: shuffler,
	}, fixedNow)
	if !errors.Is(err, domain.ErrUnexpectedPoolSize) {
		t.Fatalf("error = %v, want ErrUnexpectedPoolSize", err)
	}
}

func TestGenerateStandardRound_EvenPoolAllPaired(t *testing.T) {
	shuffler := NewSeededShuffler("t1", "community", "comm-1", "R1")
	matches, err := GenerateStandardRound(StandardRoundInput{
		TournamentID: "t1", Level: domain.LevelCommunity, EntityID: "comm-1",
		RoundLabel: "R1", RoundNumber: 1, Pool: poolOf(6), IsFirstRound: true, Shuffler: shuffler,
	}, fixedNow)
	if err != nil {
		t.Fatalf("GenerateStandardRound() error = %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}
	for _, m := range matches {
		if m.IsByeMatch || m.SpecialMatch {
			t.Errorf("even pool produced a bye/double-duty match: %+v", m)
		}
	}
}

func TestGenerateStandardRound_FirstRoundOddPoolUsesDoubleDuty(t *testing.T) {
	shuffler := NewSeededShuffler("t1", "community", "comm-1", "R1")
	matches, err := GenerateStandardRound(StandardRoundInput{
		TournamentID: "t1", Level: domain.LevelCommunity, EntityID: "comm-1",
		RoundLabel: "R1", RoundNumber: 1, Pool: poolOf(5), IsFirstRound: true, Shuffler: shuffler,
	}, fixedNow)
	if err != nil {
		t.Fatalf("GenerateStandardRound() error = %v", err)
	}
	var sawDoubleDuty bool
	for _, m := range matches {
		if m.MatchType == domain.MatchDoubleDuty {
			sawDoubleDuty = true
			if !m.SpecialMatch {
				t.Error("double-duty match not flagged SpecialMatch")
			}
		}
	}
	if !sawDoubleDuty {
		t.Error("expected a double-duty match for odd first-round pool > 3")
	}
}

func TestGenerateStandardRound_LaterRoundOddPoolUsesBye(t *testing.T) {
	shuffler := NewSeededShuffler("t1", "community", "comm-1", "R2")
	matches, err := GenerateStandardRound(StandardRoundInput{
		TournamentID: "t1", Level: domain.LevelCommunity, EntityID: "comm-1",
		RoundLabel: "R2", RoundNumber: 2, Pool: poolOf(5), IsFirstRound: false, Shuffler: shuffler,
	}, fixedNow)
	if err != nil {
		t.Fatalf("GenerateStandardRound() error = %v", err)
	}
	var sawBye bool
	for _, m := range matches {
		if m.IsByeMatch {
			sawBye = true
		}
		if m.MatchType == domain.MatchDoubleDuty {
			t.Error("non-first round should never produce double-duty")
		}
	}
	if !sawBye {
		t.Error("expected a bye match for odd non-first-round pool")
	}
}

func TestGenerateStandardRound_RejectsDuplicatePlayer(t *testing.T) {
	pool := poolOf(5)
	pool[4].ID = pool[0].ID
	shuffler := NewSeededShuffler("t1", "community", "comm-1", "R1")
	_, err := GenerateStandardRound(StandardRoundInput{
		TournamentID: "t1", Level: domain.LevelCommunity, EntityID: "comm-1",
		RoundLabel: "R1", RoundNumber: 1, Pool: pool, IsFirstRound: true, Shuffler: shuffler,
	}, fixedNow)
	if !errors.Is(err, domain.ErrDuplicatePlayer) {
		t.Fatalf("error = %v, want ErrDuplicatePlayer", err)
	}
}

func TestBestPerformingLoser_RanksByPointsThenAverageThenName(t *testing.T) {
	p1pts, p2pts := 10, 8
	candidates := []domain.Player{
		{ID: "p2", Name: "Bob", TotalPoints: &p2pts},
		{ID: "p1", Name: "Alice", TotalPoints: &p1pts},
	}
	best := BestPerformingLoser(candidates)
	if best.ID != "p1" {
		t.Errorf("BestPerformingLoser() = %q, want p1 (higher total points)", best.ID)
	}
}

func TestBestPerformingLoser_FallsBackToNameWhenStatsUnset(t *testing.T) {
	candidates := []domain.Player{
		{ID: "p2", Name: "Zed"},
		{ID: "p1", Name: "Alice"},
	}
	best := BestPerformingLoser(candidates)
	if best.Name != "Alice" {
		t.Errorf("BestPerformingLoser() = %q, want Alice (lexicographic fallback)", best.Name)
	}
}

func TestOrderWinnersByPriorPosition(t *testing.T) {
	pos1, pos2 := 1, 2
	players := []domain.Player{
		{ID: "p2", Name: "Bob", CommunityPosition: &pos2},
		{ID: "p1", Name: "Alice", CommunityPosition: &pos1},
	}
	ordered := OrderWinnersByPriorPosition(players, domain.LevelCommunity)
	if ordered[0].ID != "p1" || ordered[1].ID != "p2" {
		t.Errorf("OrderWinnersByPriorPosition() = %v, want [p1 p2]", ordered)
	}
}
