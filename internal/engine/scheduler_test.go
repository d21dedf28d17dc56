package engine

import (
	"testing"
	"time"

	"github.com/cuesports/progression/internal/domain"
)

func TestAnnotateRound_FinalRoundOffsetIs21Days(t *testing.T) {
	matches := []domain.Match{{ID: "m1"}}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	out := AnnotateRound(matches, "Community_Final", 3, true, domain.PreferenceWeekend, domain.LevelCommunity, now)
	if out[0].SchedulingMeta.DaysFromNow != 21 {
		t.Errorf("DaysFromNow = %d, want 21", out[0].SchedulingMeta.DaysFromNow)
	}
}

func TestAnnotateRound_FirstRoundOffsetIs7Days(t *testing.T) {
	matches := []domain.Match{{ID: "m1"}}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	out := AnnotateRound(matches, "R1", 1, false, domain.PreferenceWeekend, domain.LevelCommunity, now)
	if out[0].SchedulingMeta.DaysFromNow != 7 {
		t.Errorf("DaysFromNow = %d, want 7", out[0].SchedulingMeta.DaysFromNow)
	}
}

func TestAnnotateRound_LargeRoundPrefersSaturday(t *testing.T) {
	matches := make([]domain.Match, 10)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	out := AnnotateRound(matches, "R1", 1, false, domain.PreferenceWeekend, domain.LevelCommunity, now)
	if out[0].SchedulingMeta.SuggestedDay != "Saturday" {
		t.Errorf("SuggestedDay = %q, want Saturday", out[0].SchedulingMeta.SuggestedDay)
	}
}

func TestAnnotateRound_PopulatesAllMatches(t *testing.T) {
	matches := []domain.Match{{ID: "m1"}, {ID: "m2"}, {ID: "m3"}}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	out := AnnotateRound(matches, "R1", 1, false, domain.PreferenceFullWeek, domain.LevelCommunity, now)
	if len(out) != len(matches) {
		t.Fatalf("got %d matches, want %d", len(out), len(matches))
	}
	for _, m := range out {
		if m.SchedulingMeta.MatchesInRound != 3 {
			t.Errorf("MatchesInRound = %d, want 3", m.SchedulingMeta.MatchesInRound)
		}
		if m.ScheduledDate == "" {
			t.Error("ScheduledDate left empty")
		}
	}
}
