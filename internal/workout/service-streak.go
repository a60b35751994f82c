package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// activeSchedule derives the set of scheduled weekdays from the active plan.
// A plan day without exercises is a rest day and does not count. An empty
// result means no active plan, or a plan with only rest days, which the
// streak walk treats as daily.
func (s *Service) activeSchedule(ctx context.Context) (map[time.Weekday]bool, error) {
	plan, err := s.repo.plans.GetActive(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active plan: %w", err)
	}

	schedule := make(map[time.Weekday]bool, len(plan.Days))
	for _, day := range plan.Days {
		if len(day.Exercises) > 0 {
			schedule[day.Weekday] = true
		}
	}
	return schedule, nil
}

// streakWalk runs the streak computation against stored completions.
func (s *Service) streakWalk(ctx context.Context, asOf time.Time) (streakResult, error) {
	schedule, err := s.activeSchedule(ctx)
	if err != nil {
		return streakResult{}, err
	}

	since := truncateToDay(asOf).AddDate(0, 0, -streakLookbackDays)
	completed, err := s.repo.sessions.CompletedDates(ctx, since)
	if err != nil {
		return streakResult{}, fmt.Errorf("completed dates: %w", err)
	}

	return computeStreak(completed, schedule, asOf), nil
}

// StreakData assembles the dashboard view of the streak engine as of a date.
// The current streak is always recomputed from stored sessions; the longest
// streak is the profile's high-water mark.
func (s *Service) StreakData(ctx context.Context, asOf time.Time) (StreakData, error) {
	result, err := s.streakWalk(ctx, asOf)
	if err != nil {
		return StreakData{}, err
	}

	profile, err := s.repo.profiles.Get(ctx)
	if err != nil {
		return StreakData{}, fmt.Errorf("get profile: %w", err)
	}

	weeklyCompleted, err := s.repo.sessions.CountCompletedSince(ctx, sundayWeekStart(asOf))
	if err != nil {
		return StreakData{}, fmt.Errorf("count weekly sessions: %w", err)
	}

	return StreakData{
		CurrentStreak:   result.streak,
		LongestStreak:   profile.LongestStreak,
		WeeklyGoal:      profile.WeeklyGoal,
		WeeklyCompleted: weeklyCompleted,
		LastWorkoutDate: profile.LastWorkoutDate,
		IsWorkoutToday:  result.isWorkoutToday,
		CompletedToday:  result.completedToday,
	}, nil
}

// StreakStatus classifies the date for the streak banner.
//
//   - completed: today's workout is done, or a rest day with a live streak.
//   - at_risk: a workout day whose session is still open while the streak
//     is alive.
//   - broken: the streak is gone and the user has worked out before.
//   - none: no streak and nothing to lose yet.
func (s *Service) StreakStatus(ctx context.Context, asOf time.Time) (StreakStatus, error) {
	result, err := s.streakWalk(ctx, asOf)
	if err != nil {
		return StreakNone, err
	}

	if result.isWorkoutToday && result.completedToday {
		return StreakCompleted, nil
	}

	if result.streak > 0 {
		if result.isWorkoutToday {
			return StreakAtRisk, nil
		}
		return StreakCompleted, nil
	}

	profile, err := s.repo.profiles.Get(ctx)
	if err != nil {
		return StreakNone, fmt.Errorf("get profile: %w", err)
	}
	if !profile.LastWorkoutDate.IsZero() {
		return StreakBroken, nil
	}

	return StreakNone, nil
}

// CompleteSession marks the session for a date as done and settles the
// streak bookkeeping. Completing an already completed session is a no-op
// that returns the current streak data. Completing a rest-day session only
// refreshes the last workout date; the streak is untouched.
func (s *Service) CompleteSession(ctx context.Context, date time.Time) (StreakData, error) {
	if _, err := s.GetOrCreateSession(ctx, date); err != nil {
		return StreakData{}, err
	}

	first, err := s.repo.sessions.Complete(ctx, date, time.Now())
	if err != nil {
		return StreakData{}, fmt.Errorf("complete session %s: %w", formatDate(date), err)
	}
	if !first {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "session already completed",
			slog.String("date", formatDate(date)))
		return s.StreakData(ctx, date)
	}

	result, err := s.streakWalk(ctx, date)
	if err != nil {
		return StreakData{}, err
	}

	var previousStreak int
	if err = s.repo.profiles.Update(ctx, func(p *Profile) (bool, error) {
		previousStreak = p.CurrentStreak
		if date.After(p.LastWorkoutDate) {
			p.LastWorkoutDate = truncateToDay(date)
		}
		if result.isWorkoutToday {
			p.CurrentStreak = result.streak
			p.LongestStreak = max(p.LongestStreak, result.streak)
		}
		return true, nil
	}); err != nil {
		return StreakData{}, fmt.Errorf("update profile: %w", err)
	}

	if result.isWorkoutToday {
		if err = s.unlockStreakAchievements(ctx, previousStreak, result.streak); err != nil {
			return StreakData{}, err
		}
	}

	return s.StreakData(ctx, date)
}

// unlockStreakAchievements records the badges newly crossed by moving from
// previousStreak to newStreak. The unique index on (user, type) makes
// repeated unlocks harmless.
func (s *Service) unlockStreakAchievements(ctx context.Context, previousStreak, newStreak int) error {
	now := time.Now()
	for _, threshold := range streakThresholds {
		if newStreak < threshold || previousStreak >= threshold {
			continue
		}

		badgeType := streakAchievementType(threshold)
		unlocked, err := s.repo.achievements.Unlock(ctx, badgeType, now)
		if err != nil {
			return fmt.Errorf("unlock achievement %s: %w", badgeType, err)
		}
		if unlocked {
			s.logger.LogAttrs(ctx, slog.LevelInfo, "achievement unlocked",
				slog.String("type", badgeType),
				slog.Int("streak", newStreak))
		}
	}
	return nil
}
