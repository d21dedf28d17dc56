package resolver

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cuesports/progression/internal/domain"
)

func TestEntities_CommunityLevelDedupesAndSorts(t *testing.T) {
	scope := domain.ParticipantScope{CommunityIDs: []string{"c2", "c1", "c1", "", "c3"}}
	got := Entities(domain.LevelCommunity, scope)
	want := []string{"c1", "c2", "c3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Entities() = %v, want %v", got, want)
	}
}

func TestEntities_NationalAndSpecialUseSyntheticEntity(t *testing.T) {
	for _, level := range []domain.Level{domain.LevelNational, domain.LevelSpecial} {
		got := Entities(level, domain.ParticipantScope{})
		want := []string{domain.NationalEntityID}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Entities(%v) = %v, want %v", level, got, want)
		}
	}
}

func TestInitialPool_FiltersByCommunity(t *testing.T) {
	registered := []domain.Player{
		{ID: "p1", CommunityID: "c1"},
		{ID: "p2", CommunityID: "c2"},
		{ID: "p3", CommunityID: "c1"},
	}
	pool := InitialPool("c1", registered)
	if len(pool) != 2 {
		t.Fatalf("len(pool) = %d, want 2", len(pool))
	}
	for _, p := range pool {
		if p.CommunityID != "c1" {
			t.Errorf("pool contains player from wrong community: %+v", p)
		}
	}
}

func TestPromotedPool_OrdersByPriorPositionAndFiltersGeography(t *testing.T) {
	pos1, pos2 := 1, 2
	finishers := []domain.Player{
		{ID: "p2", Name: "Bob", CountyID: "cnty-1", CommunityPosition: &pos2},
		{ID: "p1", Name: "Alice", CountyID: "cnty-1", CommunityPosition: &pos1},
		{ID: "p3", Name: "Carol", CountyID: "cnty-2", CommunityPosition: &pos1},
	}
	pool, err := PromotedPool(domain.LevelCounty, "cnty-1", finishers)
	if err != nil {
		t.Fatalf("PromotedPool() error = %v", err)
	}
	if len(pool) != 2 {
		t.Fatalf("len(pool) = %d, want 2", len(pool))
	}
	if pool[0].ID != "p1" || pool[1].ID != "p2" {
		t.Errorf("pool = %v, want [p1 p2] ordered by prior position", pool)
	}
}

func TestPromotedPool_RejectsEmptyResult(t *testing.T) {
	_, err := PromotedPool(domain.LevelCounty, "cnty-missing", nil)
	if !errors.Is(err, domain.ErrInsufficientPlayers) {
		t.Fatalf("error = %v, want ErrInsufficientPlayers", err)
	}
}

func TestPromotedPool_RejectsLevelWithNoLowerLevel(t *testing.T) {
	_, err := PromotedPool(domain.LevelCommunity, "c1", nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestLowerLevelOf(t *testing.T) {
	tests := []struct {
		level domain.Level
		want  domain.Level
		ok    bool
	}{
		{domain.LevelCounty, domain.LevelCommunity, true},
		{domain.LevelRegional, domain.LevelCounty, true},
		{domain.LevelNational, domain.LevelRegional, true},
		{domain.LevelCommunity, "", false},
	}
	for _, tt := range tests {
		got, ok := LowerLevelOf(tt.level)
		if ok != tt.ok || got != tt.want {
			t.Errorf("LowerLevelOf(%v) = (%v, %v), want (%v, %v)", tt.level, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFinishersAt_TagsPositionsAndSkipsNil(t *testing.T) {
	pos := domain.Positions{
		First:  &domain.PlayerRef{ID: "a"},
		Second: &domain.PlayerRef{ID: "b"},
	}
	finishers := FinishersAt(domain.LevelCommunity, pos)
	if len(finishers) != 2 {
		t.Fatalf("len(finishers) = %d, want 2", len(finishers))
	}
	if finishers[0].CommunityPosition == nil || *finishers[0].CommunityPosition != 1 {
		t.Errorf("finishers[0].CommunityPosition = %v, want 1", finishers[0].CommunityPosition)
	}
	if finishers[1].CommunityPosition == nil || *finishers[1].CommunityPosition != 2 {
		t.Errorf("finishers[1].CommunityPosition = %v, want 2", finishers[1].CommunityPosition)
	}
}

func TestEnrichWithGeography_JoinsRosterPreservingPosition(t *testing.T) {
	pos1 := 1
	finishers := []domain.Player{
		{ID: "p1", CommunityPosition: &pos1},
	}
	roster := []domain.Player{
		{ID: "p1", Name: "Alice", CommunityID: "c1", CountyID: "cnty-1", RegionID: "reg-1"},
	}
	enriched := EnrichWithGeography(finishers, roster)
	if len(enriched) != 1 {
		t.Fatalf("len(enriched) = %d, want 1", len(enriched))
	}
	if enriched[0].CountyID != "cnty-1" {
		t.Errorf("CountyID = %q, want cnty-1", enriched[0].CountyID)
	}
	if enriched[0].CommunityPosition == nil || *enriched[0].CommunityPosition != 1 {
		t.Errorf("CommunityPosition not preserved through join: %v", enriched[0].CommunityPosition)
	}
}

func TestEnrichWithGeography_LeavesUnmatchedFinisherAsIs(t *testing.T) {
	finishers := []domain.Player{{ID: "missing"}}
	enriched := EnrichWithGeography(finishers, nil)
	if len(enriched) != 1 || enriched[0].ID != "missing" {
		t.Errorf("enriched = %v, want finisher passed through unchanged", enriched)
	}
}
