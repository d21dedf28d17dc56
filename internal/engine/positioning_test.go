package engine

import (
	"testing"

	"github.com/cuesports/progression/internal/domain"
)

func players(n int) []domain.Player {
	out := make([]domain.Player, n)
	for i := range out {
		out[i] = domain.Player{ID: string(rune('a' + i)), Name: string(rune('A' + i)), CommunityID: "comm-1"}
	}
	return out
}

func TestPositioningPool1_AutoAdvancesToPositionOne(t *testing.T) {
	m, err := PositioningPool1("t1", domain.LevelCommunity, "comm-1", "Community_Final", players(1), fixedNow)
	if err != nil {
		t.Fatalf("PositioningPool1() error = %v", err)
	}
	if !m.IsAutoAdvancement || !m.IsLevelFinal {
		t.Errorf("expected auto-advancement level-final match, got %+v", m)
	}
	if len(m.DeterminesPositions) != 1 || m.DeterminesPositions[0] != 1 {
		t.Errorf("DeterminesPositions = %v, want [1]", m.DeterminesPositions)
	}
}

func TestPositioningPool1_RejectsWrongPoolSize(t *testing.T) {
	_, err := PositioningPool1("t1", domain.LevelCommunity, "comm-1", "R", players(2), fixedNow)
	if err == nil {
		t.Fatal("expected error for pool size 2")
	}
}

func TestPositioningPool2_WinnerFirstLoserSecondNoThird(t *testing.T) {
	m, err := PositioningPool2("t1", domain.LevelCommunity, "comm-1", "Community_Final", players(2), fixedNow)
	if err != nil {
		t.Fatalf("PositioningPool2() error = %v", err)
	}
	if len(m.DeterminesPositions) != 2 || m.DeterminesPositions[0] != 1 || m.DeterminesPositions[1] != 2 {
		t.Errorf("DeterminesPositions = %v, want [1 2]", m.DeterminesPositions)
	}
}

func TestPositioningThreePlayer_FullFlow(t *testing.T) {
	shuffler := NewSeededShuffler("t1", "community", "comm-1", "Community_Final")
	matchA, err := PositioningThreePlayerInitial("t1", domain.LevelCommunity, "comm-1", "Community_Final", players(3), shuffler, fixedNow)
	if err != nil {
		t.Fatalf("PositioningThreePlayerInitial() error = %v", err)
	}
	if matchA.WaitingPlayerID == "" {
		t.Fatal("expected a waiting player to be carried")
	}

	matchA.Status = domain.StatusCompleted
	matchA.Player1Points, matchA.Player2Points = 3, 1

	matchB, err := PositioningThreePlayerFinal("t1", domain.LevelCommunity, "comm-1", "Community_Final", matchA, fixedNow)
	if err != nil {
		t.Fatalf("PositioningThreePlayerFinal() error = %v", err)
	}
	if matchB.Player2.ID != matchA.WaitingPlayerID {
		t.Errorf("match B player2 = %q, want waiting player %q", matchB.Player2.ID, matchA.WaitingPlayerID)
	}
	if len(matchB.DeterminesPositions) != 2 || matchB.DeterminesPositions[0] != 2 || matchB.DeterminesPositions[1] != 3 {
		t.Errorf("DeterminesPositions = %v, want [2 3]", matchB.DeterminesPositions)
	}
}

func TestPositioningThreePlayerFinal_RequiresDecidedMatchA(t *testing.T) {
	shuffler := NewSeededShuffler("t1", "community", "comm-1", "Community_Final")
	matchA, _ := PositioningThreePlayerInitial("t1", domain.LevelCommunity, "comm-1", "Community_Final", players(3), shuffler, fixedNow)
	// matchA left scheduled, not completed.
	_, err := PositioningThreePlayerFinal("t1", domain.LevelCommunity, "comm-1", "Community_Final", matchA, fixedNow)
	if err == nil {
		t.Fatal("expected error when match A is undecided")
	}
}

func TestPositioningFourPlayer_FullFlow(t *testing.T) {
	shuffler := NewSeededShuffler("t1", "community", "comm-1", "Community_Final")
	sfs, err := PositioningFourPlayerSemis("t1", domain.LevelCommunity, "comm-1", "Community_SF", players(4), shuffler, fixedNow)
	if err != nil {
		t.Fatalf("PositioningFourPlayerSemis() error = %v", err)
	}
	if len(sfs) != 2 {
		t.Fatalf("got %d semi-finals, want 2", len(sfs))
	}

	sf1, sf2 := sfs[0], sfs[1]
	sf1.Status, sf1.Player1Points, sf1.Player2Points = domain.StatusCompleted, 3, 1
	sf2.Status, sf2.Player1Points, sf2.Player2Points = domain.StatusCompleted, 1, 3

	wf, lf, err := PositioningFourPlayerFinals("t1", domain.LevelCommunity, "comm-1", "Community_WF", "Community_LF", sf1, sf2, fixedNow)
	if err != nil {
		t.Fatalf("PositioningFourPlayerFinals() error = %v", err)
	}
	if wf.RoundLabel == lf.RoundLabel {
		t.Errorf("winners_final and losers_final share round label %q, want distinct", wf.RoundLabel)
	}

	wf.Status, wf.Player1Points, wf.Player2Points = domain.StatusCompleted, 1, 3
	lf.Status, lf.Player1Points, lf.Player2Points = domain.StatusCompleted, 3, 1

	final, err := PositioningFourPlayerFinal("t1", domain.LevelCommunity, "comm-1", "Community_F", wf, lf, fixedNow)
	if err != nil {
		t.Fatalf("PositioningFourPlayerFinal() error = %v", err)
	}
	if len(final.DeterminesPositions) != 2 || final.DeterminesPositions[0] != 2 || final.DeterminesPositions[1] != 3 {
		t.Errorf("DeterminesPositions = %v, want [2 3]", final.DeterminesPositions)
	}
}

func TestPositioningFourPlayerFinals_RequiresBothSemisDecided(t *testing.T) {
	shuffler := NewSeededShuffler("t1", "community", "comm-1", "Community_SF")
	sfs, _ := PositioningFourPlayerSemis("t1", domain.LevelCommunity, "comm-1", "Community_SF", players(4), shuffler, fixedNow)
	_, _, err := PositioningFourPlayerFinals("t1", domain.LevelCommunity, "comm-1", "Community_WF", "Community_LF", sfs[0], sfs[1], fixedNow)
	if err == nil {
		t.Fatal("expected error when semi-finals are undecided")
	}
}
