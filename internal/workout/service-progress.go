package workout

import (
	"context"
	"fmt"
	"sort"
	"time"
)

const (
	// defaultHistoryDays is the window for exercise history queries.
	defaultHistoryDays = 90
	// defaultSummaryWeeks is the window for weekly summaries.
	defaultSummaryWeeks = 8
	// suggestionScanSessions bounds how far back a single-exercise
	// suggestion looks for usable sessions.
	suggestionScanSessions = 20
	// batchScanSessions bounds the shared scan serving batch suggestions.
	batchScanSessions = 30
	// suggestionSamples is how many performances are collected per exercise.
	// Only the two most recent decide the advice; the extras feed the UI.
	suggestionSamples = 4
)

// ExerciseHistory aggregates the user's work on one exercise over the given
// window. Days <= 0 defaults to 90. Every session with at least one set of
// the exercise contributes a point, completed or not, sorted ascending by
// date; sessions without sets for it are skipped, so the series is sparse
// rather than zero-filled.
func (s *Service) ExerciseHistory(ctx context.Context, exerciseID int, asOf time.Time, days int) (ExerciseHistory, error) {
	if days <= 0 {
		days = defaultHistoryDays
	}

	exercise, err := s.repo.exercises.Get(ctx, exerciseID)
	if err != nil {
		return ExerciseHistory{}, fmt.Errorf("get exercise %d: %w", exerciseID, err)
	}

	since := truncateToDay(asOf).AddDate(0, 0, -days)
	sessions, err := s.repo.sessions.List(ctx, since, 0)
	if err != nil {
		return ExerciseHistory{}, fmt.Errorf("list sessions: %w", err)
	}

	history := ExerciseHistory{
		ExerciseID: exerciseID,
		Name:       exercise.Name,
	}

	// Sessions arrive newest first; the chart wants oldest first.
	for i := len(sessions) - 1; i >= 0; i-- {
		sets := setsForExercise(sessions[i], exerciseID)
		if len(sets) == 0 {
			continue
		}

		topSet := topSetOf(sets)
		history.Points = append(history.Points, HistoryPoint{
			Date:         sessions[i].Date,
			Sets:         sets,
			TopSet:       topSet,
			Estimated1RM: EstimatedOneRepMax(topSet.WeightKg, topSet.Reps),
			Volume:       TotalVolume(sets),
		})
	}

	if history.BestWeightKg, err = s.repo.sessions.BestWeight(ctx, exerciseID); err != nil {
		return ExerciseHistory{}, fmt.Errorf("get best weight: %w", err)
	}

	return history, nil
}

// WeeklySummary buckets the user's sessions into Monday-start weeks. Weeks
// <= 0 defaults to 8. Sessions counts every session in the bucket and
// Completed the subset marked done; volume and distinct exercises cover all
// logged sets either way. Weeks without sessions are omitted, so the series
// is sparse, oldest first.
func (s *Service) WeeklySummary(ctx context.Context, asOf time.Time, weeks int) ([]WeekSummary, error) {
	if weeks <= 0 {
		weeks = defaultSummaryWeeks
	}

	start := truncateToDay(asOf).AddDate(0, 0, -7*weeks)
	sessions, err := s.repo.sessions.List(ctx, start, 0)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	type bucket struct {
		sessions  int
		completed int
		volume    float64
		exercises map[int]bool
	}
	buckets := make(map[string]*bucket)
	for _, session := range sessions {
		key := formatDate(mondayWeekStart(session.Date))
		b, ok := buckets[key]
		if !ok {
			b = &bucket{sessions: 0, completed: 0, volume: 0, exercises: make(map[int]bool)}
			buckets[key] = b
		}
		b.sessions++
		if session.Completed() {
			b.completed++
		}
		b.volume += TotalVolume(session.Sets)
		for _, set := range session.Sets {
			b.exercises[set.ExerciseID] = true
		}
	}

	weekStarts := make([]string, 0, len(buckets))
	for key := range buckets {
		weekStarts = append(weekStarts, key)
	}
	sort.Strings(weekStarts)

	summaries := make([]WeekSummary, 0, len(buckets))
	for _, key := range weekStarts {
		weekStart, parseErr := parseDate(key)
		if parseErr != nil {
			return nil, parseErr
		}
		b := buckets[key]
		summaries = append(summaries, WeekSummary{
			WeekStart:   weekStart,
			Sessions:    b.sessions,
			Completed:   b.completed,
			TotalVolume: b.volume,
			Exercises:   len(b.exercises),
		})
	}

	return summaries, nil
}

// ExerciseSuggestion recommends the next weight for one exercise based on
// its recent sessions. TargetReps <= 0 defaults to 8.
func (s *Service) ExerciseSuggestion(ctx context.Context, exerciseID int, targetReps int) (Suggestion, error) {
	sessions, err := s.repo.sessions.List(ctx, time.Time{}, suggestionScanSessions)
	if err != nil {
		return Suggestion{}, fmt.Errorf("list sessions: %w", err)
	}

	history := collectPerformances(sessions, exerciseID, suggestionSamples)
	return progressionAdvice(history, targetReps), nil
}

// BatchSuggestions serves the log form with one suggestion per exercise from
// a single scan of recent sessions. The classification is the same as
// ExerciseSuggestion's; each result adds the suggested and last weights.
func (s *Service) BatchSuggestions(ctx context.Context, exerciseIDs []int, targetReps int) ([]BatchSuggestion, error) {
	sessions, err := s.repo.sessions.List(ctx, time.Time{}, batchScanSessions)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	suggestions := make([]BatchSuggestion, 0, len(exerciseIDs))
	for _, exerciseID := range exerciseIDs {
		history := collectPerformances(sessions, exerciseID, suggestionSamples)
		advice := progressionAdvice(history, targetReps)

		var lastWeight float64
		if len(history) > 0 {
			lastWeight = history[0].weightKg
		}
		suggestedWeight := lastWeight
		if advice.Kind == SuggestionIncrease || advice.Kind == SuggestionDecrease {
			suggestedWeight = advice.NewWeightKg
		}

		suggestions = append(suggestions, BatchSuggestion{
			ExerciseID:        exerciseID,
			Suggestion:        advice,
			SuggestedWeightKg: suggestedWeight,
			LastWeightKg:      lastWeight,
		})
	}

	return suggestions, nil
}

// AllExerciseStats aggregates every exercise the user has ever logged into
// dashboard statistics: last and best weights with their dates, unique
// session count, all-time volume, and whether the best weight was set within
// the week before asOf. Results are ordered by most recent session first.
func (s *Service) AllExerciseStats(ctx context.Context, asOf time.Time) ([]ExerciseStat, error) {
	sessions, err := s.repo.sessions.List(ctx, time.Time{}, 0)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	stats := make(map[int]*ExerciseStat)
	// Walk oldest first so a tied best weight keeps the date it was first hit
	// and the newest session ends up as the last one.
	for i := len(sessions) - 1; i >= 0; i-- {
		session := sessions[i]
		counted := make(map[int]bool, len(session.Sets))
		for _, set := range session.Sets {
			stat, ok := stats[set.ExerciseID]
			if !ok {
				stat = &ExerciseStat{ExerciseID: set.ExerciseID, OldestWeightKg: set.WeightKg} //nolint:exhaustruct // filled below.
				stats[set.ExerciseID] = stat
			}

			stat.TotalVolume += float64(set.Reps) * set.WeightKg
			if !counted[set.ExerciseID] {
				stat.SessionCount++
				counted[set.ExerciseID] = true
			}
			if set.WeightKg > stat.BestWeightKg {
				stat.BestWeightKg = set.WeightKg
				stat.BestWeightDate = session.Date
			}
			stat.LastWeightKg = set.WeightKg
			stat.LastDate = session.Date
		}
	}

	exercises, err := s.repo.exercises.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	exercisesByID := make(map[int]Exercise, len(exercises))
	for _, exercise := range exercises {
		exercisesByID[exercise.ID] = exercise
	}

	recentCutoff := truncateToDay(asOf).AddDate(0, 0, -7)
	result := make([]ExerciseStat, 0, len(stats))
	for _, stat := range stats {
		if exercise, ok := exercisesByID[stat.ExerciseID]; ok {
			stat.Name = exercise.Name
			stat.MuscleGroup = exercise.MuscleGroup
		}
		stat.RecentPR = !stat.BestWeightDate.Before(recentCutoff)
		result = append(result, *stat)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LastDate.After(result[j].LastDate) })

	return result, nil
}

// RecentSessions lists the user's completed sessions newest first with set
// counts and volume. Limit <= 0 defaults to 10.
func (s *Service) RecentSessions(ctx context.Context, limit int) ([]SessionDigest, error) {
	if limit <= 0 {
		limit = 10
	}

	sessions, err := s.repo.sessions.ListCompleted(ctx, time.Time{}, limit)
	if err != nil {
		return nil, fmt.Errorf("list completed sessions: %w", err)
	}

	digests := make([]SessionDigest, 0, len(sessions))
	for _, session := range sessions {
		digest := SessionDigest{ //nolint:exhaustruct // CompletedAt set below.
			Date:     session.Date,
			SetCount: len(session.Sets),
			Volume:   TotalVolume(session.Sets),
			Notes:    session.Notes,
		}
		if session.CompletedAt != nil {
			digest.CompletedAt = *session.CompletedAt
		}
		digests = append(digests, digest)
	}

	return digests, nil
}

// LastWeights returns the most recently logged weight per exercise for
// prefilling the log form. Exercises never logged are absent.
func (s *Service) LastWeights(ctx context.Context, exerciseIDs []int) (map[int]float64, error) {
	weights, err := s.repo.sessions.LastWeights(ctx, exerciseIDs)
	if err != nil {
		return nil, fmt.Errorf("last weights: %w", err)
	}
	return weights, nil
}

// setsForExercise filters a session's sets down to one exercise.
func setsForExercise(session Session, exerciseID int) []SetEntry {
	var sets []SetEntry
	for _, set := range session.Sets {
		if set.ExerciseID == exerciseID {
			sets = append(sets, set)
		}
	}
	return sets
}

// topSetOf picks the heaviest set. The first set at the top weight wins ties.
func topSetOf(sets []SetEntry) SetEntry {
	top := sets[0]
	for _, set := range sets[1:] {
		if set.WeightKg > top.WeightKg {
			top = set
		}
	}
	return top
}

// collectPerformances condenses recent sessions (newest first) into per
// session performances for one exercise: the weight and reps of that
// session's top set. A light back-off set must not drag the classification
// down. Sessions without the exercise are skipped. At most limit
// performances are collected.
func collectPerformances(sessions []Session, exerciseID int, limit int) []exercisePerformance {
	var history []exercisePerformance
	for _, session := range sessions {
		sets := setsForExercise(session, exerciseID)
		if len(sets) == 0 {
			continue
		}

		topSet := topSetOf(sets)
		history = append(history, exercisePerformance{
			weightKg: topSet.WeightKg,
			reps:     topSet.Reps,
		})
		if len(history) == limit {
			break
		}
	}
	return history
}
