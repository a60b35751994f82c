package workout_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/liftlog/internal/contexthelpers"
	"github.com/myrjola/liftlog/internal/sqlite"
	"github.com/myrjola/liftlog/internal/testhelpers"
	"github.com/myrjola/liftlog/internal/workout"
)

// newTestService boots an in-memory database and returns a service together
// with a context authenticated as a fresh user.
func newTestService(t *testing.T) (*workout.Service, context.Context) {
	t.Helper()

	ctx := t.Context()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))

	db, err := sqlite.NewDatabase(ctx, ":memory:", logger)
	if err != nil {
		t.Fatalf("create test database: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("close database: %v", closeErr)
		}
	})

	svc := workout.NewService(db, logger)

	userID, err := svc.EnsureUser(ctx, "lifter@example.com")
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}

	return svc, context.WithValue(ctx, contexthelpers.AuthenticatedUserIDContextKey, userID)
}

// findExercise resolves a seeded catalog exercise by name.
func findExercise(t *testing.T, ctx context.Context, svc *workout.Service, name string) workout.Exercise {
	t.Helper()

	exercises, err := svc.Exercises(ctx)
	if err != nil {
		t.Fatalf("list exercises: %v", err)
	}
	for _, exercise := range exercises {
		if exercise.Name == name {
			return exercise
		}
	}
	t.Fatalf("exercise %q not found in catalog", name)
	return workout.Exercise{}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func Test_EnsureUser_IsIdempotent(t *testing.T) {
	svc, ctx := newTestService(t)

	first, err := svc.EnsureUser(ctx, "repeat@example.com")
	if err != nil {
		t.Fatalf("first sign-in: %v", err)
	}
	second, err := svc.EnsureUser(ctx, "repeat@example.com")
	if err != nil {
		t.Fatalf("second sign-in: %v", err)
	}
	if first != second {
		t.Errorf("same email produced different users: %d and %d", first, second)
	}

	other, err := svc.EnsureUser(ctx, "someone-else@example.com")
	if err != nil {
		t.Fatalf("other sign-in: %v", err)
	}
	if other == first {
		t.Errorf("different emails share user ID %d", first)
	}
}

func Test_GetOrCreateSession_SnapshotsActivePlan(t *testing.T) {
	svc, ctx := newTestService(t)
	squat := findExercise(t, ctx, svc, "Squat")

	// Without an active plan the session has no plan reference.
	monday := date(2026, time.March, 2)
	session, err := svc.GetOrCreateSession(ctx, monday)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.PlanID != nil {
		t.Errorf("expected nil plan ID, got %d", *session.PlanID)
	}
	if session.Weekday == nil || *session.Weekday != time.Monday {
		t.Errorf("expected Monday weekday snapshot, got %v", session.Weekday)
	}

	again, err := svc.GetOrCreateSession(ctx, monday)
	if err != nil {
		t.Fatalf("get session again: %v", err)
	}
	if again.ID != session.ID {
		t.Errorf("second call created a new session: %d then %d", session.ID, again.ID)
	}

	plan, err := svc.CreatePlan(ctx, workout.PlanDraft{
		Name: "Leg Day",
		Days: []workout.PlanDay{{
			Weekday: time.Tuesday,
			Name:    "Legs",
			Exercises: []workout.PlanExercise{{
				ExerciseID: squat.ID,
				Position:   0,
				Sets:       []workout.PlanSet{{RepsTarget: 5}, {RepsTarget: 5}},
			}},
		}},
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}

	tuesday := date(2026, time.March, 3)
	planned, err := svc.GetOrCreateSession(ctx, tuesday)
	if err != nil {
		t.Fatalf("create planned session: %v", err)
	}
	if planned.PlanID == nil || *planned.PlanID != plan.ID {
		t.Errorf("expected plan snapshot %d, got %v", plan.ID, planned.PlanID)
	}

	// The earlier session keeps its snapshot even though a plan is now active.
	earlier, err := svc.Session(ctx, monday)
	if err != nil {
		t.Fatalf("get earlier session: %v", err)
	}
	if earlier.PlanID != nil {
		t.Errorf("plan activation rewrote an earlier session to plan %d", *earlier.PlanID)
	}
}

func Test_LogSet_UpsertsAndValidates(t *testing.T) {
	svc, ctx := newTestService(t)
	bench := findExercise(t, ctx, svc, "Bench Press")
	day := date(2026, time.March, 4)

	if err := svc.LogSet(ctx, day, workout.SetEntry{
		ExerciseID: bench.ID, SetIndex: 0, Reps: 8, WeightKg: 60,
	}); err != nil {
		t.Fatalf("log first set: %v", err)
	}

	// Logging the same slot again replaces the entry instead of adding one.
	if err := svc.LogSet(ctx, day, workout.SetEntry{
		ExerciseID: bench.ID, SetIndex: 0, Reps: 6, WeightKg: 62.5,
	}); err != nil {
		t.Fatalf("replace set: %v", err)
	}

	session, err := svc.Session(ctx, day)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	want := []workout.SetEntry{{ExerciseID: bench.ID, SetIndex: 0, Reps: 6, WeightKg: 62.5, RPE: nil}}
	if diff := cmp.Diff(want, session.Sets); diff != "" {
		t.Errorf("sets mismatch (-want +got):\n%s", diff)
	}

	invalidRPE := 11
	invalid := []workout.SetEntry{
		{ExerciseID: bench.ID, SetIndex: 0, Reps: -1, WeightKg: 60},
		{ExerciseID: bench.ID, SetIndex: 0, Reps: 8, WeightKg: -5},
		{ExerciseID: bench.ID, SetIndex: -1, Reps: 8, WeightKg: 60},
		{ExerciseID: bench.ID, SetIndex: 0, Reps: 8, WeightKg: 60, RPE: &invalidRPE},
	}
	for _, entry := range invalid {
		if err = svc.LogSet(ctx, day, entry); err == nil {
			t.Errorf("expected validation error for %+v", entry)
		}
	}

	err = svc.LogSet(ctx, day, workout.SetEntry{ExerciseID: 999999, SetIndex: 0, Reps: 8, WeightKg: 60})
	if !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("expected not-found error for unknown exercise, got %v", err)
	}
}

func Test_LogSet_IsScopedToUser(t *testing.T) {
	svc, ctx := newTestService(t)
	bench := findExercise(t, ctx, svc, "Bench Press")
	day := date(2026, time.March, 4)

	if err := svc.LogSet(ctx, day, workout.SetEntry{
		ExerciseID: bench.ID, SetIndex: 0, Reps: 8, WeightKg: 60,
	}); err != nil {
		t.Fatalf("log set: %v", err)
	}

	otherID, err := svc.EnsureUser(ctx, "other@example.com")
	if err != nil {
		t.Fatalf("ensure other user: %v", err)
	}
	otherCtx := context.WithValue(t.Context(), contexthelpers.AuthenticatedUserIDContextKey, otherID)

	if _, err = svc.Session(otherCtx, day); !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("expected not-found for other user's session, got %v", err)
	}
}

func Test_CompleteSession_IsIdempotentAndUnlocksAchievements(t *testing.T) {
	svc, ctx := newTestService(t)
	squat := findExercise(t, ctx, svc, "Squat")

	// Three consecutive daily completions. No plan is active, so every day
	// counts towards the streak.
	days := []time.Time{
		date(2026, time.March, 2),
		date(2026, time.March, 3),
		date(2026, time.March, 4),
	}
	var streak workout.StreakData
	for i, day := range days {
		if err := svc.LogSet(ctx, day, workout.SetEntry{
			ExerciseID: squat.ID, SetIndex: 0, Reps: 5, WeightKg: 100,
		}); err != nil {
			t.Fatalf("log set on %s: %v", day, err)
		}
		var err error
		if streak, err = svc.CompleteSession(ctx, day); err != nil {
			t.Fatalf("complete session on %s: %v", day, err)
		}
		if streak.CurrentStreak != i+1 {
			t.Errorf("after day %d expected streak %d, got %d", i+1, i+1, streak.CurrentStreak)
		}
	}
	if !streak.CompletedToday {
		t.Error("expected CompletedToday after completing the asOf date")
	}

	// Completing again neither extends the streak nor errors.
	again, err := svc.CompleteSession(ctx, days[2])
	if err != nil {
		t.Fatalf("re-complete session: %v", err)
	}
	if again.CurrentStreak != 3 {
		t.Errorf("re-completion changed streak to %d", again.CurrentStreak)
	}

	achievements, err := svc.Achievements(ctx)
	if err != nil {
		t.Fatalf("list achievements: %v", err)
	}
	if len(achievements) != 1 || achievements[0].Type != "streak_3" {
		t.Errorf("expected a single streak_3 achievement, got %+v", achievements)
	}

	profile, err := svc.Profile(ctx)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.LongestStreak != 3 {
		t.Errorf("expected longest streak 3, got %d", profile.LongestStreak)
	}
	if !profile.LastWorkoutDate.Equal(days[2]) {
		t.Errorf("expected last workout date %s, got %s", days[2], profile.LastWorkoutDate)
	}
}

func Test_StreakStatus_FollowsPlanSchedule(t *testing.T) {
	svc, ctx := newTestService(t)
	squat := findExercise(t, ctx, svc, "Squat")

	status, err := svc.StreakStatus(ctx, date(2026, time.March, 2))
	if err != nil {
		t.Fatalf("initial status: %v", err)
	}
	if status != workout.StreakNone {
		t.Errorf("expected none before any workout, got %s", status)
	}

	// Monday and Wednesday are workout days; everything else rests.
	if _, err = svc.CreatePlan(ctx, workout.PlanDraft{
		Name: "Mon/Wed",
		Days: []workout.PlanDay{
			{Weekday: time.Monday, Name: "A", Exercises: []workout.PlanExercise{{
				ExerciseID: squat.ID, Position: 0, Sets: []workout.PlanSet{{RepsTarget: 5}},
			}}},
			{Weekday: time.Wednesday, Name: "B", Exercises: []workout.PlanExercise{{
				ExerciseID: squat.ID, Position: 0, Sets: []workout.PlanSet{{RepsTarget: 5}},
			}}},
		},
	}); err != nil {
		t.Fatalf("create plan: %v", err)
	}

	monday := date(2026, time.March, 2)
	if status, err = svc.StreakStatus(ctx, monday); err != nil {
		t.Fatalf("status on open workout day: %v", err)
	}
	if status != workout.StreakNone {
		t.Errorf("expected none with no history, got %s", status)
	}

	if _, err = svc.CompleteSession(ctx, monday); err != nil {
		t.Fatalf("complete Monday: %v", err)
	}
	if status, err = svc.StreakStatus(ctx, monday); err != nil {
		t.Fatalf("status after completing: %v", err)
	}
	if status != workout.StreakCompleted {
		t.Errorf("expected completed on a done workout day, got %s", status)
	}

	// Tuesday is a rest day; the Monday streak survives it.
	tuesday := date(2026, time.March, 3)
	data, err := svc.StreakData(ctx, tuesday)
	if err != nil {
		t.Fatalf("streak data on rest day: %v", err)
	}
	if data.CurrentStreak != 1 {
		t.Errorf("rest day broke the streak: got %d", data.CurrentStreak)
	}
	if data.IsWorkoutToday {
		t.Error("Tuesday should be a rest day under the Mon/Wed plan")
	}
	if status, err = svc.StreakStatus(ctx, tuesday); err != nil {
		t.Fatalf("status on rest day: %v", err)
	}
	if status != workout.StreakCompleted {
		t.Errorf("expected completed on a rest day with a live streak, got %s", status)
	}

	// Wednesday's workout is still open, so the streak is at risk.
	wednesday := date(2026, time.March, 4)
	if status, err = svc.StreakStatus(ctx, wednesday); err != nil {
		t.Fatalf("status on open Wednesday: %v", err)
	}
	if status != workout.StreakAtRisk {
		t.Errorf("expected at_risk on an open workout day, got %s", status)
	}

	// A missed Wednesday kills the streak by the following Monday.
	nextMonday := date(2026, time.March, 9)
	if status, err = svc.StreakStatus(ctx, nextMonday); err != nil {
		t.Fatalf("status after missed workout: %v", err)
	}
	if status != workout.StreakBroken {
		t.Errorf("expected broken after missing Wednesday, got %s", status)
	}
}

func Test_StreakData_TreatsExerciselessPlanDaysAsRest(t *testing.T) {
	svc, ctx := newTestService(t)
	squat := findExercise(t, ctx, svc, "Squat")

	// Monday trains; Tuesday is in the plan as a labelled day with no
	// exercises, which makes it a rest day.
	if _, err := svc.CreatePlan(ctx, workout.PlanDraft{
		Name: "One on, one off",
		Days: []workout.PlanDay{
			{Weekday: time.Monday, Name: "Squats", Exercises: []workout.PlanExercise{{
				ExerciseID: squat.ID, Position: 0, Sets: []workout.PlanSet{{RepsTarget: 5}},
			}}},
			{Weekday: time.Tuesday, Name: "Mobility"},
		},
	}); err != nil {
		t.Fatalf("create plan: %v", err)
	}

	monday := date(2026, time.March, 2)
	if _, err := svc.CompleteSession(ctx, monday); err != nil {
		t.Fatalf("complete Monday: %v", err)
	}

	tuesday := date(2026, time.March, 3)
	data, err := svc.StreakData(ctx, tuesday)
	if err != nil {
		t.Fatalf("streak data on exercise-less day: %v", err)
	}
	if data.IsWorkoutToday {
		t.Error("a plan day without exercises must not count as a workout day")
	}
	if data.CurrentStreak != 1 {
		t.Errorf("exercise-less plan day broke the streak: got %d", data.CurrentStreak)
	}
	status, err := svc.StreakStatus(ctx, tuesday)
	if err != nil {
		t.Fatalf("streak status: %v", err)
	}
	if status != workout.StreakCompleted {
		t.Errorf("expected completed across an exercise-less day, got %s", status)
	}

	// A plan consisting only of rest days falls back to the daily streak.
	restfulID, err := svc.EnsureUser(ctx, "restful@example.com")
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	restfulCtx := context.WithValue(t.Context(), contexthelpers.AuthenticatedUserIDContextKey, restfulID)
	if _, err = svc.CreatePlan(restfulCtx, workout.PlanDraft{
		Name: "All rest",
		Days: []workout.PlanDay{{Weekday: time.Sunday, Name: "Off"}},
	}); err != nil {
		t.Fatalf("create rest-only plan: %v", err)
	}
	for i, day := range []time.Time{monday, tuesday} {
		streak, completeErr := svc.CompleteSession(restfulCtx, day)
		if completeErr != nil {
			t.Fatalf("complete session: %v", completeErr)
		}
		if streak.CurrentStreak != i+1 {
			t.Errorf("expected daily fallback streak %d, got %d", i+1, streak.CurrentStreak)
		}
	}
}

func Test_CompleteSession_SevenDayBoundaryUnlocksWeekBadgeOnce(t *testing.T) {
	svc, ctx := newTestService(t)
	squat := findExercise(t, ctx, svc, "Squat")

	// Seven consecutive daily completions cross the 3- and 7-day thresholds
	// and nothing beyond them.
	var last time.Time
	for i := range 7 {
		last = date(2026, time.March, 2+i)
		if err := svc.LogSet(ctx, last, workout.SetEntry{
			ExerciseID: squat.ID, SetIndex: 0, Reps: 5, WeightKg: 100,
		}); err != nil {
			t.Fatalf("log set: %v", err)
		}
		if _, err := svc.CompleteSession(ctx, last); err != nil {
			t.Fatalf("complete session: %v", err)
		}
	}

	achievements, err := svc.Achievements(ctx)
	if err != nil {
		t.Fatalf("list achievements: %v", err)
	}
	unlocked := make(map[string]int)
	for _, achievement := range achievements {
		unlocked[achievement.Type]++
	}
	want := map[string]int{"streak_3": 1, "streak_7": 1}
	if diff := cmp.Diff(want, unlocked); diff != "" {
		t.Errorf("achievements mismatch (-want +got):\n%s", diff)
	}

	// Re-completing the boundary day duplicates nothing.
	if _, err = svc.CompleteSession(ctx, last); err != nil {
		t.Fatalf("re-complete session: %v", err)
	}
	if after, listErr := svc.Achievements(ctx); listErr != nil || len(after) != len(achievements) {
		t.Errorf("re-completion changed achievements: %d then %d (err %v)",
			len(achievements), len(after), listErr)
	}
}

func Test_StreakData_LongestIsStoredHighWaterMark(t *testing.T) {
	svc, ctx := newTestService(t)

	// Backfilling completions newest first never pushes the stored
	// high-water mark past 1, even though the recomputed walk later sees
	// three consecutive days.
	for _, day := range []time.Time{
		date(2026, time.March, 4),
		date(2026, time.March, 3),
		date(2026, time.March, 2),
	} {
		if _, err := svc.CompleteSession(ctx, day); err != nil {
			t.Fatalf("complete session: %v", err)
		}
	}

	data, err := svc.StreakData(ctx, date(2026, time.March, 4))
	if err != nil {
		t.Fatalf("streak data: %v", err)
	}
	if data.CurrentStreak != 3 {
		t.Errorf("expected recomputed streak 3, got %d", data.CurrentStreak)
	}
	if data.LongestStreak != 1 {
		t.Errorf("expected the stored high-water mark 1, got %d", data.LongestStreak)
	}
}

func Test_CreatePlan_ActivatesAndValidates(t *testing.T) {
	svc, ctx := newTestService(t)
	bench := findExercise(t, ctx, svc, "Bench Press")

	draft := func(name string) workout.PlanDraft {
		return workout.PlanDraft{
			Name: name,
			Days: []workout.PlanDay{{
				Weekday: time.Monday,
				Name:    "Push",
				Exercises: []workout.PlanExercise{{
					ExerciseID: bench.ID, Position: 0, Sets: []workout.PlanSet{{RepsTarget: 8}},
				}},
			}},
		}
	}

	first, err := svc.CreatePlan(ctx, draft("First"))
	if err != nil {
		t.Fatalf("create first plan: %v", err)
	}
	if !first.Active {
		t.Error("new plan should be active")
	}

	second, err := svc.CreatePlan(ctx, draft("Second"))
	if err != nil {
		t.Fatalf("create second plan: %v", err)
	}

	active, err := svc.ActivePlan(ctx)
	if err != nil {
		t.Fatalf("get active plan: %v", err)
	}
	if active.ID != second.ID {
		t.Errorf("expected newest plan %d active, got %d", second.ID, active.ID)
	}

	if err = svc.SetActivePlan(ctx, first.ID); err != nil {
		t.Fatalf("reactivate first plan: %v", err)
	}
	if active, err = svc.ActivePlan(ctx); err != nil {
		t.Fatalf("get active plan after switch: %v", err)
	}
	if active.ID != first.ID {
		t.Errorf("expected plan %d active after switch, got %d", first.ID, active.ID)
	}

	if _, err = svc.CreatePlan(ctx, workout.PlanDraft{Name: ""}); err == nil {
		t.Error("expected error for empty plan name")
	}
	if _, err = svc.CreatePlan(ctx, workout.PlanDraft{
		Name: "Duped",
		Days: []workout.PlanDay{{Weekday: time.Monday}, {Weekday: time.Monday}},
	}); err == nil {
		t.Error("expected error for duplicate weekday")
	}

	if err = svc.DeletePlan(ctx, second.ID); err != nil {
		t.Fatalf("delete plan: %v", err)
	}
	if err = svc.DeletePlan(ctx, second.ID); !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("expected not-found deleting twice, got %v", err)
	}
}

func Test_TodayTemplate_MatchesWeekday(t *testing.T) {
	svc, ctx := newTestService(t)
	row := findExercise(t, ctx, svc, "Barbell Row")

	monday := date(2026, time.March, 2)
	if _, ok, err := svc.TodayTemplate(ctx, monday); err != nil || ok {
		t.Fatalf("expected no template without a plan, got ok=%v err=%v", ok, err)
	}

	if _, err := svc.CreatePlan(ctx, workout.PlanDraft{
		Name: "Pull",
		Days: []workout.PlanDay{{
			Weekday: time.Monday,
			Name:    "Back",
			Exercises: []workout.PlanExercise{{
				ExerciseID: row.ID, Position: 0,
				Sets: []workout.PlanSet{{RepsTarget: 10}, {RepsTarget: 10}, {RepsTarget: 10}},
			}},
		}},
	}); err != nil {
		t.Fatalf("create plan: %v", err)
	}

	day, ok, err := svc.TodayTemplate(ctx, monday)
	if err != nil {
		t.Fatalf("today template: %v", err)
	}
	if !ok {
		t.Fatal("expected a template on the planned weekday")
	}
	if day.Name != "Back" || len(day.Exercises) != 1 || len(day.Exercises[0].Sets) != 3 {
		t.Errorf("unexpected template: %+v", day)
	}

	if _, ok, err = svc.TodayTemplate(ctx, date(2026, time.March, 3)); err != nil || ok {
		t.Errorf("expected rest day on Tuesday, got ok=%v err=%v", ok, err)
	}
}

func Test_WeeklySummary_SparseMondayBuckets(t *testing.T) {
	svc, ctx := newTestService(t)
	deadlift := findExercise(t, ctx, svc, "Deadlift")

	log := func(day time.Time, weightKg float64, complete bool) {
		t.Helper()
		if err := svc.LogSet(ctx, day, workout.SetEntry{
			ExerciseID: deadlift.ID, SetIndex: 0, Reps: 5, WeightKg: weightKg,
		}); err != nil {
			t.Fatalf("log set: %v", err)
		}
		if complete {
			if _, err := svc.CompleteSession(ctx, day); err != nil {
				t.Fatalf("complete session: %v", err)
			}
		}
	}

	// A Tuesday workout three weeks back, a Sunday workout, and two sessions
	// in the current week of which one stays open. The first week of the
	// window has no sessions at all.
	log(date(2026, time.February, 17), 120, true)
	log(date(2026, time.March, 1), 100, true)
	log(date(2026, time.March, 2), 125, true)
	log(date(2026, time.March, 4), 130, false)

	asOf := date(2026, time.March, 6)
	summaries, err := svc.WeeklySummary(ctx, asOf, 4)
	if err != nil {
		t.Fatalf("weekly summary: %v", err)
	}

	// The empty week of February 9 is absent rather than zero-filled. The
	// Sunday session lands in the bucket of the Monday six days before it,
	// and the open March 4 session counts its sets without counting as
	// completed.
	want := []workout.WeekSummary{
		{WeekStart: date(2026, time.February, 16), Sessions: 1, Completed: 1, TotalVolume: 600, Exercises: 1},
		{WeekStart: date(2026, time.February, 23), Sessions: 1, Completed: 1, TotalVolume: 500, Exercises: 1},
		{WeekStart: date(2026, time.March, 2), Sessions: 2, Completed: 1, TotalVolume: 1275, Exercises: 1},
	}
	if diff := cmp.Diff(want, summaries); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func Test_ExerciseHistory_AscendingWithOpenSessions(t *testing.T) {
	svc, ctx := newTestService(t)
	press := findExercise(t, ctx, svc, "Overhead Press")

	sessions := []struct {
		day      time.Time
		weightKg float64
		reps     int
	}{
		{date(2026, time.March, 2), 40, 8},
		{date(2026, time.March, 5), 42.5, 6},
	}
	for _, s := range sessions {
		for setIndex := range 2 {
			if err := svc.LogSet(ctx, s.day, workout.SetEntry{
				ExerciseID: press.ID, SetIndex: setIndex, Reps: s.reps, WeightKg: s.weightKg,
			}); err != nil {
				t.Fatalf("log set: %v", err)
			}
		}
		if _, err := svc.CompleteSession(ctx, s.day); err != nil {
			t.Fatalf("complete session: %v", err)
		}
	}

	// A still-open session counts like any other.
	if err := svc.LogSet(ctx, date(2026, time.March, 6), workout.SetEntry{
		ExerciseID: press.ID, SetIndex: 0, Reps: 10, WeightKg: 50,
	}); err != nil {
		t.Fatalf("log open session set: %v", err)
	}

	history, err := svc.ExerciseHistory(ctx, press.ID, date(2026, time.March, 6), 0)
	if err != nil {
		t.Fatalf("exercise history: %v", err)
	}

	if history.Name != "Overhead Press" {
		t.Errorf("unexpected exercise name %q", history.Name)
	}
	if history.BestWeightKg != 50 {
		t.Errorf("expected best weight 50, got %v", history.BestWeightKg)
	}
	if len(history.Points) != 3 {
		t.Fatalf("expected 3 history points, got %d", len(history.Points))
	}
	if !history.Points[0].Date.Equal(date(2026, time.March, 2)) {
		t.Errorf("expected oldest point first, got %s", history.Points[0].Date)
	}
	middle := history.Points[1]
	if middle.TopSet.WeightKg != 42.5 || middle.Volume != 510 {
		t.Errorf("unexpected middle point: %+v", middle)
	}
	if middle.Estimated1RM != 51 {
		t.Errorf("expected estimated 1RM 51, got %v", middle.Estimated1RM)
	}
	newest := history.Points[2]
	if !newest.Date.Equal(date(2026, time.March, 6)) || newest.TopSet.WeightKg != 50 || newest.Volume != 500 {
		t.Errorf("unexpected newest point: %+v", newest)
	}
}

func Test_ExerciseSuggestion_ProgressesAndDeloads(t *testing.T) {
	svc, ctx := newTestService(t)
	bench := findExercise(t, ctx, svc, "Bench Press")
	curl := findExercise(t, ctx, svc, "Bicep Curl")

	logCompleted := func(day time.Time, exerciseID, reps int, weightKg float64) {
		t.Helper()
		if err := svc.LogSet(ctx, day, workout.SetEntry{
			ExerciseID: exerciseID, SetIndex: 0, Reps: reps, WeightKg: weightKg,
		}); err != nil {
			t.Fatalf("log set: %v", err)
		}
		if _, err := svc.CompleteSession(ctx, day); err != nil {
			t.Fatalf("complete session: %v", err)
		}
	}

	suggestion, err := svc.ExerciseSuggestion(ctx, bench.ID, 8)
	if err != nil {
		t.Fatalf("suggestion without history: %v", err)
	}
	if suggestion.Kind != workout.SuggestionInsufficient {
		t.Errorf("expected insufficient_data without history, got %s", suggestion.Kind)
	}

	// Two sessions at a stable weight hitting the rep target earn an increase;
	// the curl in the same sessions keeps missing the target badly.
	logCompleted(date(2026, time.March, 2), bench.ID, 8, 60)
	logCompleted(date(2026, time.March, 4), bench.ID, 9, 60)
	logCompleted(date(2026, time.March, 2), curl.ID, 4, 20)
	logCompleted(date(2026, time.March, 4), curl.ID, 5, 20)

	if suggestion, err = svc.ExerciseSuggestion(ctx, bench.ID, 8); err != nil {
		t.Fatalf("bench suggestion: %v", err)
	}
	if suggestion.Kind != workout.SuggestionIncrease || suggestion.NewWeightKg != 62.5 {
		t.Errorf("expected increase to 62.5, got %+v", suggestion)
	}

	if suggestion, err = svc.ExerciseSuggestion(ctx, curl.ID, 8); err != nil {
		t.Fatalf("curl suggestion: %v", err)
	}
	if suggestion.Kind != workout.SuggestionDecrease || suggestion.NewWeightKg != 18 {
		t.Errorf("expected deload to 18, got %+v", suggestion)
	}

	batch, err := svc.BatchSuggestions(ctx, []int{bench.ID, curl.ID}, 8)
	if err != nil {
		t.Fatalf("batch suggestions: %v", err)
	}
	if len(batch) != 2 {
		t.Fatalf("expected 2 batch suggestions, got %d", len(batch))
	}
	if batch[0].SuggestedWeightKg != 62.5 || batch[0].LastWeightKg != 60 {
		t.Errorf("unexpected bench batch entry: %+v", batch[0])
	}
	if batch[1].SuggestedWeightKg != 18 || batch[1].LastWeightKg != 20 {
		t.Errorf("unexpected curl batch entry: %+v", batch[1])
	}
}

func Test_ExerciseSuggestion_UsesTopSetReps(t *testing.T) {
	svc, ctx := newTestService(t)
	bench := findExercise(t, ctx, svc, "Bench Press")

	// Each session hits the target on the top set and follows it with a
	// light low-rep back-off set. Only the top set decides the advice.
	for _, day := range []time.Time{date(2026, time.March, 2), date(2026, time.March, 4)} {
		if err := svc.LogSet(ctx, day, workout.SetEntry{
			ExerciseID: bench.ID, SetIndex: 0, Reps: 8, WeightKg: 100,
		}); err != nil {
			t.Fatalf("log top set: %v", err)
		}
		if err := svc.LogSet(ctx, day, workout.SetEntry{
			ExerciseID: bench.ID, SetIndex: 1, Reps: 4, WeightKg: 60,
		}); err != nil {
			t.Fatalf("log back-off set: %v", err)
		}
		if _, err := svc.CompleteSession(ctx, day); err != nil {
			t.Fatalf("complete session: %v", err)
		}
	}

	suggestion, err := svc.ExerciseSuggestion(ctx, bench.ID, 8)
	if err != nil {
		t.Fatalf("suggestion: %v", err)
	}
	if suggestion.Kind != workout.SuggestionIncrease || suggestion.NewWeightKg != 102.5 {
		t.Errorf("expected increase to 102.5 from the top set, got %+v", suggestion)
	}
}

func Test_AllExerciseStats_AggregatesAllSessions(t *testing.T) {
	svc, ctx := newTestService(t)
	squat := findExercise(t, ctx, svc, "Squat")
	bench := findExercise(t, ctx, svc, "Bench Press")

	log := func(day time.Time, exerciseID, reps int, weightKg float64, complete bool) {
		t.Helper()
		if err := svc.LogSet(ctx, day, workout.SetEntry{
			ExerciseID: exerciseID, SetIndex: 0, Reps: reps, WeightKg: weightKg,
		}); err != nil {
			t.Fatalf("log set: %v", err)
		}
		if complete {
			if _, err := svc.CompleteSession(ctx, day); err != nil {
				t.Fatalf("complete session: %v", err)
			}
		}
	}

	// Squat: a month-old PR followed by lighter work. Bench: logged once in
	// a session that is still open.
	oldDay := date(2026, time.February, 2)
	recentDay := date(2026, time.March, 2)
	openDay := date(2026, time.March, 4)
	log(oldDay, squat.ID, 5, 140, true)
	log(recentDay, squat.ID, 5, 120, true)
	log(openDay, bench.ID, 8, 60, false)

	stats, err := svc.AllExerciseStats(ctx, openDay)
	if err != nil {
		t.Fatalf("exercise stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected stats for 2 exercises, got %d", len(stats))
	}

	benchStat := stats[0]
	if benchStat.ExerciseID != bench.ID {
		t.Fatalf("expected the most recently trained exercise first, got %+v", benchStat)
	}
	if benchStat.Name != "Bench Press" || benchStat.SessionCount != 1 || benchStat.TotalVolume != 480 {
		t.Errorf("unexpected bench stat: %+v", benchStat)
	}
	if !benchStat.LastDate.Equal(openDay) || benchStat.LastWeightKg != 60 {
		t.Errorf("open session missing from bench stat: %+v", benchStat)
	}
	if !benchStat.RecentPR {
		t.Error("a best weight set this week should flag a recent PR")
	}

	squatStat := stats[1]
	if squatStat.BestWeightKg != 140 || !squatStat.BestWeightDate.Equal(oldDay) {
		t.Errorf("unexpected squat best: %+v", squatStat)
	}
	if squatStat.LastWeightKg != 120 || !squatStat.LastDate.Equal(recentDay) {
		t.Errorf("unexpected squat last: %+v", squatStat)
	}
	if squatStat.SessionCount != 2 || squatStat.TotalVolume != 1300 || squatStat.OldestWeightKg != 140 {
		t.Errorf("unexpected squat aggregates: %+v", squatStat)
	}
	if squatStat.RecentPR {
		t.Error("a month-old PR should not be flagged as recent")
	}
}

func Test_Profile_DefaultsAndUpdates(t *testing.T) {
	svc, ctx := newTestService(t)

	profile, err := svc.Profile(ctx)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.Units != "kg" {
		t.Errorf("expected default units kg, got %q", profile.Units)
	}
	if profile.WeeklyGoal != 3 {
		t.Errorf("expected default weekly goal 3, got %d", profile.WeeklyGoal)
	}

	if err = svc.UpdateProfile(ctx, "Ronnie", "lb", "Get strong"); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if err = svc.SetWeeklyGoal(ctx, 5); err != nil {
		t.Fatalf("set weekly goal: %v", err)
	}

	if profile, err = svc.Profile(ctx); err != nil {
		t.Fatalf("get updated profile: %v", err)
	}
	if profile.DisplayName != "Ronnie" || profile.Units != "lb" || profile.Goals != "Get strong" {
		t.Errorf("profile not updated: %+v", profile)
	}
	if profile.WeeklyGoal != 5 {
		t.Errorf("weekly goal not updated: %d", profile.WeeklyGoal)
	}

	if err = svc.UpdateProfile(ctx, "Ronnie", "stone", ""); err == nil {
		t.Error("expected error for invalid units")
	}
	for _, goal := range []int{0, 8} {
		if err = svc.SetWeeklyGoal(ctx, goal); err == nil {
			t.Errorf("expected error for weekly goal %d", goal)
		}
	}
}

func Test_CreateExercise_IsCustomPerUser(t *testing.T) {
	svc, ctx := newTestService(t)

	created, err := svc.CreateExercise(ctx, "Sled Push", "Legs", "Sled")
	if err != nil {
		t.Fatalf("create exercise: %v", err)
	}
	if created.UserID == nil {
		t.Error("custom exercise should carry the owner's user ID")
	}

	if _, err = svc.CreateExercise(ctx, "", "Legs", ""); err == nil {
		t.Error("expected error for empty exercise name")
	}

	otherID, err := svc.EnsureUser(ctx, "other@example.com")
	if err != nil {
		t.Fatalf("ensure other user: %v", err)
	}
	otherCtx := context.WithValue(t.Context(), contexthelpers.AuthenticatedUserIDContextKey, otherID)

	if _, err = svc.Exercise(otherCtx, created.ID); !errors.Is(err, workout.ErrNotFound) {
		t.Errorf("expected other user not to see the custom exercise, got %v", err)
	}

	groups, err := svc.MuscleGroups(ctx)
	if err != nil {
		t.Fatalf("list muscle groups: %v", err)
	}
	if len(groups) == 0 {
		t.Error("expected seeded muscle groups")
	}
}

func Test_UpdateSessionNotes(t *testing.T) {
	svc, ctx := newTestService(t)
	day := date(2026, time.March, 2)

	if _, err := svc.GetOrCreateSession(ctx, day); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := svc.UpdateSessionNotes(ctx, day, "felt strong"); err != nil {
		t.Fatalf("update notes: %v", err)
	}

	session, err := svc.Session(ctx, day)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.Notes != "felt strong" {
		t.Errorf("expected notes to persist, got %q", session.Notes)
	}
}
