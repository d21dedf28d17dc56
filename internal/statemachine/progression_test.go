package statemachine

import (
	"errors"
	"testing"

	"github.com/cuesports/progression/internal/domain"
)

func player(id string) domain.Player {
	return domain.Player{ID: id, Name: id, CommunityID: "comm-1"}
}

func completed(id string, roundLabel string, p1, p2 string, p1pts, p2pts int) domain.Match {
	return domain.Match{
		ID:            id,
		RoundLabel:    roundLabel,
		Status:        domain.StatusCompleted,
		Player1:       domain.PlayerRef{ID: p1, Name: p1},
		Player2:       domain.PlayerRef{ID: p2, Name: p2},
		Player1Points: p1pts,
		Player2Points: p2pts,
	}
}

func scheduled(id string, roundLabel string, p1, p2 string) domain.Match {
	return domain.Match{
		ID:         id,
		RoundLabel: roundLabel,
		Status:     domain.StatusScheduled,
		Player1:    domain.PlayerRef{ID: p1, Name: p1},
		Player2:    domain.PlayerRef{ID: p2, Name: p2},
	}
}

func TestDecideInitial_RoutesByPoolSize(t *testing.T) {
	tests := []struct {
		poolSize int
		want     Regime
	}{
		{1, RegimePool1},
		{2, RegimePool2},
		{3, RegimePool3Initial},
		{4, RegimePool4Semis},
		{5, RegimeStandard},
		{12, RegimeStandard},
	}
	for _, tt := range tests {
		pool := make([]domain.Player, tt.poolSize)
		for i := range pool {
			pool[i] = player(string(rune('a' + i)))
		}
		d, err := DecideInitial(domain.LevelCommunity, pool)
		if err != nil {
			t.Fatalf("pool size %d: DecideInitial() error = %v", tt.poolSize, err)
		}
		if d.Regime != tt.want {
			t.Errorf("pool size %d: Regime = %v, want %v", tt.poolSize, d.Regime, tt.want)
		}
	}
}

func TestDecideInitial_RejectsEmptyPool(t *testing.T) {
	_, err := DecideInitial(domain.LevelCommunity, nil)
	if !errors.Is(err, domain.ErrInsufficientPlayers) {
		t.Fatalf("error = %v, want ErrInsufficientPlayers", err)
	}
}

func TestDecideNext_StandardRoundIncomplete(t *testing.T) {
	matches := []domain.Match{
		completed("R1_COMM_c1_match_1", "R1", "a", "b", 3, 1),
		scheduled("R1_COMM_c1_match_2", "R1", "c", "d"),
	}
	_, err := DecideNext(domain.LevelCommunity, matches, "R1")
	var incomplete *domain.IncompleteRoundError
	if !errors.As(err, &incomplete) {
		t.Fatalf("error = %v, want *IncompleteRoundError", err)
	}
	if incomplete.TotalMatches != 2 || incomplete.CompletedMatches != 1 {
		t.Errorf("incomplete detail = %+v, want total 2 completed 1", incomplete)
	}
}

func TestDecideNext_StandardRoundAdvancesToNextRound(t *testing.T) {
	matches := []domain.Match{
		completed("R1_COMM_c1_match_1", "R1", "a", "b", 3, 1),
		completed("R1_COMM_c1_match_2", "R1", "c", "d", 3, 0),
		completed("R1_COMM_c1_match_3", "R1", "e", "f", 3, 1),
		completed("R1_COMM_c1_match_4", "R1", "g", "h", 3, 2),
		completed("R1_COMM_c1_match_5", "R1", "i", "j", 3, 1),
	}
	d, err := DecideNext(domain.LevelCommunity, matches, "R1")
	if err != nil {
		t.Fatalf("DecideNext() error = %v", err)
	}
	if d.Action != ActionGenerateRound || d.Regime != RegimeStandard {
		t.Fatalf("decision = %+v, want generate_round/standard", d)
	}
	if len(d.Pool) != 5 {
		t.Errorf("winners pool = %d, want 5", len(d.Pool))
	}
	if d.RoundLabel != "R2" {
		t.Errorf("RoundLabel = %q, want R2", d.RoundLabel)
	}
}

func TestDecideNext_StandardRoundDropsToFourPlayerSemis(t *testing.T) {
	matches := []domain.Match{
		completed("R1_m1", "R1", "a", "b", 3, 1),
		completed("R1_m2", "R1", "c", "d", 3, 0),
		completed("R1_m3", "R1", "e", "f", 3, 1),
		completed("R1_m4", "R1", "g", "h", 3, 2),
	}
	d, err := DecideNext(domain.LevelCommunity, matches, "R1")
	if err != nil {
		t.Fatalf("DecideNext() error = %v", err)
	}
	if d.Regime != RegimePool4Semis {
		t.Errorf("Regime = %v, want pool4_semis", d.Regime)
	}
	if len(d.Pool) != 4 {
		t.Errorf("winners pool = %d, want 4", len(d.Pool))
	}
}

func TestDecideNext_RefusesToFabricateFinalFromSingleWinner(t *testing.T) {
	matches := []domain.Match{
		completed("R1_m1", "R1", "a", "b", 3, 1),
	}
	_, err := DecideNext(domain.LevelCommunity, matches, "R1")
	if !errors.Is(err, domain.ErrNoWinnersFound) {
		t.Fatalf("error = %v, want ErrNoWinnersFound", err)
	}
}

func TestDecideNext_FourPlayerSemisIncomplete(t *testing.T) {
	matches := []domain.Match{
		completed("Community_SF_COMM_c1_SF1", "Community_SF", "a", "b", 3, 1),
		scheduled("Community_SF_COMM_c1_SF2", "Community_SF", "c", "d"),
	}
	_, err := DecideNext(domain.LevelCommunity, matches, "Community_SF")
	var incomplete *domain.IncompleteRoundError
	if !errors.As(err, &incomplete) {
		t.Fatalf("error = %v, want *IncompleteRoundError", err)
	}
}

func TestDecideNext_FourPlayerSemisToFinalsCarriesDistinctLabels(t *testing.T) {
	matches := []domain.Match{
		completed("Community_SF_COMM_c1_SF1", "Community_SF", "a", "b", 3, 1),
		completed("Community_SF_COMM_c1_SF2", "Community_SF", "c", "d", 3, 0),
	}
	d, err := DecideNext(domain.LevelCommunity, matches, "Community_SF")
	if err != nil {
		t.Fatalf("DecideNext() error = %v", err)
	}
	if d.Regime != RegimePool4Finals {
		t.Fatalf("Regime = %v, want pool4_finals", d.Regime)
	}
	if d.WinnersFinalLabel == "" || d.LosersFinalLabel == "" || d.WinnersFinalLabel == d.LosersFinalLabel {
		t.Errorf("expected distinct winners/losers final labels, got %q / %q", d.WinnersFinalLabel, d.LosersFinalLabel)
	}
}

func TestDecideNext_FourPlayerFinalsToFinal(t *testing.T) {
	matches := []domain.Match{
		completed("Community_WF_COMM_c1_WINNERS_FINAL", "Community_WF", "a", "c", 3, 1),
		completed("Community_LF_COMM_c1_LOSERS_FINAL", "Community_LF", "b", "d", 3, 1),
	}
	d, err := DecideNext(domain.LevelCommunity, matches, "")
	if err != nil {
		t.Fatalf("DecideNext() error = %v", err)
	}
	if d.Regime != RegimePool4Final || d.Action != ActionGenerateRound {
		t.Fatalf("decision = %+v, want generate_round/pool4_final", d)
	}
}

func TestDecideNext_FourPlayerFinalCompletesFinalizes(t *testing.T) {
	matches := []domain.Match{
		completed("Community_F_COMM_c1_FINAL", "Community_F", "a", "b", 3, 1),
	}
	d, err := DecideNext(domain.LevelCommunity, matches, "")
	if err != nil {
		t.Fatalf("DecideNext() error = %v", err)
	}
	if d.Action != ActionFinalize {
		t.Fatalf("Action = %v, want finalize", d.Action)
	}
}

func TestDecideNext_ThreePlayerInitialToFinal(t *testing.T) {
	matches := []domain.Match{
		{
			ID: "Community_Final_COMM_c1_INITIAL", RoundLabel: "Community_Final",
			Status: domain.StatusCompleted,
			Player1: domain.PlayerRef{ID: "a"}, Player2: domain.PlayerRef{ID: "b"},
			Player1Points: 3, Player2Points: 1,
			WaitingPlayerID: "c", WaitingPlayerName: "c",
		},
	}
	d, err := DecideNext(domain.LevelCommunity, matches, "")
	if err != nil {
		t.Fatalf("DecideNext() error = %v", err)
	}
	if d.Regime != RegimePool3Final {
		t.Fatalf("Regime = %v, want pool3_final", d.Regime)
	}
}

func TestDecideNext_ThreeTwoOnePlayerFinalizeWhenComplete(t *testing.T) {
	matches := []domain.Match{
		completed("Community_Final_COMM_c1_TWO_PLAYER_FINAL", "Community_Final", "a", "b", 3, 1),
	}
	d, err := DecideNext(domain.LevelCommunity, matches, "")
	if err != nil {
		t.Fatalf("DecideNext() error = %v", err)
	}
	if d.Action != ActionFinalize {
		t.Fatalf("Action = %v, want finalize", d.Action)
	}
}

func TestDecideNext_IsIdempotentRegardlessOfHint(t *testing.T) {
	matches := []domain.Match{
		completed("R1_m1", "R1", "a", "b", 3, 1),
		completed("R1_m2", "R1", "c", "d", 3, 0),
		completed("R1_m3", "R1", "e", "f", 3, 1),
		completed("R1_m4", "R1", "g", "h", 3, 2),
		completed("R1_m5", "R1", "i", "j", 3, 1),
	}
	d1, err1 := DecideNext(domain.LevelCommunity, matches, "garbage-hint")
	d2, err2 := DecideNext(domain.LevelCommunity, matches, "R1")
	if err1 != nil || err2 != nil {
		t.Fatalf("errors = %v, %v", err1, err2)
	}
	if d1.RoundLabel != d2.RoundLabel || d1.Regime != d2.Regime {
		t.Errorf("decision depends on caller-supplied hint: %+v vs %+v", d1, d2)
	}
}
