package workout

import (
	"testing"
	"time"
)

// date builds a UTC midnight time for brevity in the tables below.
func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// completedOn turns a list of dates into the lookup map computeStreak expects.
func completedOn(dates ...time.Time) map[string]bool {
	completed := make(map[string]bool, len(dates))
	for _, d := range dates {
		completed[formatDate(d)] = true
	}
	return completed
}

func TestComputeStreak(t *testing.T) {
	// 2026-08-24 is a Monday.
	monday := date(2026, time.August, 24)
	mwf := map[time.Weekday]bool{
		time.Monday:    true,
		time.Wednesday: true,
		time.Friday:    true,
	}

	testCases := []struct {
		name      string
		completed map[string]bool
		schedule  map[time.Weekday]bool
		asOf      time.Time
		want      streakResult
	}{
		{
			name:      "no history",
			completed: completedOn(),
			schedule:  mwf,
			asOf:      monday,
			want:      streakResult{streak: 0, isWorkoutToday: true, completedToday: false},
		},
		{
			name: "rest days between workouts do not break the streak",
			completed: completedOn(
				monday,
				monday.AddDate(0, 0, -3), // previous Friday
				monday.AddDate(0, 0, -5), // previous Wednesday
			),
			schedule: mwf,
			asOf:     monday,
			want:     streakResult{streak: 3, isWorkoutToday: true, completedToday: true},
		},
		{
			name: "missed workout day before today breaks the streak",
			completed: completedOn(
				monday,
				monday.AddDate(0, 0, -5), // Wednesday done, Friday missed
			),
			schedule: mwf,
			asOf:     monday,
			want:     streakResult{streak: 1, isWorkoutToday: true, completedToday: true},
		},
		{
			name: "incomplete workout today is skipped not broken",
			completed: completedOn(
				monday.AddDate(0, 0, -3),
				monday.AddDate(0, 0, -5),
			),
			schedule: mwf,
			asOf:     monday,
			want:     streakResult{streak: 2, isWorkoutToday: true, completedToday: false},
		},
		{
			name: "rest day as-of keeps yesterday's streak",
			completed: completedOn(
				monday,
				monday.AddDate(0, 0, -3),
			),
			schedule: mwf,
			asOf:     monday.AddDate(0, 0, 1), // Tuesday
			want:     streakResult{streak: 2, isWorkoutToday: false, completedToday: false},
		},
		{
			name: "missed most recent workout day seen from a rest day",
			completed: completedOn(
				monday.AddDate(0, 0, -3), // Friday done, Monday missed
			),
			schedule: mwf,
			asOf:     monday.AddDate(0, 0, 1), // Tuesday
			want:     streakResult{streak: 0, isWorkoutToday: false, completedToday: false},
		},
		{
			name: "empty schedule counts every day",
			completed: completedOn(
				monday,
				monday.AddDate(0, 0, -1),
				monday.AddDate(0, 0, -2),
			),
			schedule: nil,
			asOf:     monday,
			want:     streakResult{streak: 3, isWorkoutToday: true, completedToday: true},
		},
		{
			name: "empty schedule breaks on a gap",
			completed: completedOn(
				monday,
				monday.AddDate(0, 0, -2),
			),
			schedule: nil,
			asOf:     monday,
			want:     streakResult{streak: 1, isWorkoutToday: true, completedToday: true},
		},
		{
			name: "completed rest day does not extend the streak",
			completed: completedOn(
				monday.AddDate(0, 0, 1), // Tuesday session logged anyway
				monday,
			),
			schedule: mwf,
			asOf:     monday.AddDate(0, 0, 1),
			want:     streakResult{streak: 1, isWorkoutToday: false, completedToday: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := computeStreak(tc.completed, tc.schedule, tc.asOf)
			if got != tc.want {
				t.Errorf("computeStreak() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestComputeStreakIsBounded(t *testing.T) {
	// A completed session on every single day should clamp at the lookback
	// window instead of walking into prehistory.
	asOf := date(2026, time.August, 24)
	completed := make(map[string]bool)
	for i := range streakLookbackDays + 100 {
		completed[formatDate(asOf.AddDate(0, 0, -i))] = true
	}

	got := computeStreak(completed, nil, asOf)
	if got.streak != streakLookbackDays {
		t.Errorf("streak = %d, want %d", got.streak, streakLookbackDays)
	}
}

func TestWeekStarts(t *testing.T) {
	testCases := []struct {
		name       string
		day        time.Time
		wantMonday time.Time
		wantSunday time.Time
	}{
		{
			name:       "midweek",
			day:        date(2026, time.August, 26), // Wednesday
			wantMonday: date(2026, time.August, 24),
			wantSunday: date(2026, time.August, 23),
		},
		{
			name:       "monday is its own week start",
			day:        date(2026, time.August, 24),
			wantMonday: date(2026, time.August, 24),
			wantSunday: date(2026, time.August, 23),
		},
		{
			name:       "sunday belongs to the previous monday week",
			day:        date(2026, time.August, 23),
			wantMonday: date(2026, time.August, 17),
			wantSunday: date(2026, time.August, 23),
		},
		{
			name:       "saturday",
			day:        date(2026, time.August, 29),
			wantMonday: date(2026, time.August, 24),
			wantSunday: date(2026, time.August, 23),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mondayWeekStart(tc.day); !got.Equal(tc.wantMonday) {
				t.Errorf("mondayWeekStart(%s) = %s, want %s", formatDate(tc.day), formatDate(got), formatDate(tc.wantMonday))
			}
			if got := sundayWeekStart(tc.day); !got.Equal(tc.wantSunday) {
				t.Errorf("sundayWeekStart(%s) = %s, want %s", formatDate(tc.day), formatDate(got), formatDate(tc.wantSunday))
			}
		})
	}
}
