package workout

import (
	"fmt"
	"time"
)

// streakLookbackDays caps the backward walk so a long history cannot turn
// the streak computation into an unbounded scan.
const streakLookbackDays = 730

// streakThresholds are the streak lengths that unlock a badge, ascending.
var streakThresholds = []int{3, 7, 14, 30, 60, 100}

// achievementLabels maps badge types to their display names.
var achievementLabels = map[string]string{
	"streak_3":   "3-Day Streak",
	"streak_7":   "Week Warrior",
	"streak_14":  "Two Week Titan",
	"streak_30":  "Monthly Master",
	"streak_60":  "Iron Will",
	"streak_100": "Century Club",
}

// streakAchievementType returns the badge type for a streak threshold.
func streakAchievementType(threshold int) string {
	return fmt.Sprintf("streak_%d", threshold)
}

// streakResult is the outcome of a streak walk.
type streakResult struct {
	// streak is the count of consecutive completed workout days ending at asOf.
	streak int
	// isWorkoutToday reports whether asOf itself is a scheduled workout day.
	isWorkoutToday bool
	// completedToday reports whether a completed session exists for asOf.
	completedToday bool
}

// computeStreak walks backward from asOf over scheduled workout days and
// counts consecutive completed ones. An empty schedule means no active plan,
// in which case every day counts. An incomplete workout day at asOf itself
// is skipped rather than counted as a break, so the streak can still be
// rescued by finishing today's workout; any earlier incomplete workout day
// ends the walk.
func computeStreak(completed map[string]bool, schedule map[time.Weekday]bool, asOf time.Time) streakResult {
	day := truncateToDay(asOf)
	daily := len(schedule) == 0

	res := streakResult{
		streak:         0,
		isWorkoutToday: daily || schedule[day.Weekday()],
		completedToday: completed[formatDate(day)],
	}

	for i := range streakLookbackDays {
		current := day.AddDate(0, 0, -i)
		if !daily && !schedule[current.Weekday()] {
			continue
		}
		if completed[formatDate(current)] {
			res.streak++
			continue
		}
		if i == 0 {
			continue
		}
		break
	}

	return res
}

// truncateToDay strips the time-of-day component.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// mondayWeekStart returns the Monday on or before d. Weekly summaries
// bucket by this date.
func mondayWeekStart(d time.Time) time.Time {
	d = truncateToDay(d)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// sundayWeekStart returns the Sunday on or before d. The weekly goal
// counter resets on this date.
func sundayWeekStart(d time.Time) time.Time {
	d = truncateToDay(d)
	return d.AddDate(0, 0, -int(d.Weekday()))
}
