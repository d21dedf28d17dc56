package engine

import (
	"time"

	"github.com/cuesports/progression/internal/domain"
)

// AnnotateRound decorates the matches of one round with a suggested
// day-of-week and a relative date offset, per spec.md §6 "Scheduling
// annotation": R1 +7 days, R2 +14, finals +21, others +28; small rounds any
// day, medium prefer weekend, large rounds -> Saturday. Advisory only —
// nothing in the core depends on it (spec.md §9).
func AnnotateRound(matches []domain.Match, roundLabel string, roundNumber int, isFinalRound bool, pref domain.SchedulingPreference, level domain.Level, now time.Time) []domain.Match {
	daysFromNow := daysFromNowFor(roundNumber, isFinalRound)
	day := suggestedDay(len(matches), pref, now, daysFromNow)

	out := make([]domain.Match, len(matches))
	for i, m := range matches {
		m.SchedulingMeta = domain.SchedulingMeta{
			SuggestedDay:         day,
			DaysFromNow:          daysFromNow,
			MatchesInRound:       len(matches),
			SchedulingPreference: string(pref),
			Level:                level,
		}
		m.ScheduledDate = day
		out[i] = m
	}
	return out
}

func daysFromNowFor(roundNumber int, isFinalRound bool) int {
	switch {
	case isFinalRound:
		return 21
	case roundNumber <= 1:
		return 7
	case roundNumber == 2:
		return 14
	default:
		return 28
	}
}

func suggestedDay(matchesInRound int, pref domain.SchedulingPreference, now time.Time, offset int) string {
	target := now.AddDate(0, 0, offset)

	switch {
	case matchesInRound <= 2:
		// Small rounds: any day works, the target's natural weekday.
		return target.Weekday().String()
	case matchesInRound <= 6:
		// Medium rounds: prefer weekend.
		if pref == domain.PreferenceFullWeek {
			return target.Weekday().String()
		}
		return nextWeekendDay(target).String()
	default:
		// Large rounds: Saturday.
		return time.Saturday.String()
	}
}

func nextWeekendDay(from time.Time) time.Weekday {
	for d := from; ; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			return d.Weekday()
		}
		if d.Sub(from) > 7*24*time.Hour {
			return time.Saturday
		}
	}
}
