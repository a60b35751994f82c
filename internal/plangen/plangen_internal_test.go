package plangen

import (
	"context"
	"testing"

	"github.com/myrjola/liftlog/internal/testhelpers"
)

func testCatalog() []Exercise {
	return []Exercise{
		{ID: 1, Name: "Bench Press", MuscleGroup: "Chest", Equipment: "Barbell"},
		{ID: 2, Name: "Squat", MuscleGroup: "Legs", Equipment: "Barbell"},
		{ID: 3, Name: "Barbell Row", MuscleGroup: "Back", Equipment: "Barbell"},
		{ID: 4, Name: "Overhead Press", MuscleGroup: "Shoulders", Equipment: "Barbell"},
		{ID: 5, Name: "Deadlift", MuscleGroup: "Legs", Equipment: "Barbell"},
		{ID: 6, Name: "Pull-Up", MuscleGroup: "Back", Equipment: "Bodyweight"},
	}
}

func TestGenerate_fallbackWithoutAPIKey(t *testing.T) {
	generator := New("", testhelpers.NewLogger(testhelpers.NewWriter(t)))

	draft, err := generator.Generate(context.Background(), "get stronger", 3, testCatalog())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if draft.Name == "" {
		t.Error("expected draft to have a name")
	}
	if len(draft.Days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(draft.Days))
	}

	seenWeekdays := make(map[int]bool)
	for _, day := range draft.Days {
		if day.Weekday < 0 || day.Weekday > 6 {
			t.Errorf("day %q has invalid weekday %d", day.Name, day.Weekday)
		}
		if seenWeekdays[day.Weekday] {
			t.Errorf("weekday %d appears twice", day.Weekday)
		}
		seenWeekdays[day.Weekday] = true

		if len(day.Exercises) == 0 {
			t.Errorf("day %q has no exercises", day.Name)
		}
		for _, pick := range day.Exercises {
			if pick.Sets != fallbackSets || pick.RepsTarget != fallbackReps {
				t.Errorf("expected default set scheme, got %d x %d", pick.Sets, pick.RepsTarget)
			}
		}
	}

	if err = validateDraft(draft, testCatalog()); err != nil {
		t.Errorf("fallback draft should validate, got %v", err)
	}
}

func TestGenerate_clampsDaysPerWeek(t *testing.T) {
	generator := New("", testhelpers.NewLogger(testhelpers.NewWriter(t)))

	draft, err := generator.Generate(context.Background(), "", 0, testCatalog())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(draft.Days) != 1 {
		t.Errorf("expected days per week clamped to 1, got %d days", len(draft.Days))
	}

	draft, err = generator.Generate(context.Background(), "", 99, testCatalog())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(draft.Days) != 7 {
		t.Errorf("expected days per week clamped to 7, got %d days", len(draft.Days))
	}
}

func TestGenerate_emptyCatalog(t *testing.T) {
	generator := New("", testhelpers.NewLogger(testhelpers.NewWriter(t)))

	if _, err := generator.Generate(context.Background(), "", 3, nil); err == nil {
		t.Error("expected error for empty catalog")
	}
}

func TestValidateDraft(t *testing.T) {
	catalog := testCatalog()
	validDay := Day{
		Weekday: 1,
		Name:    "Push Day",
		Exercises: []ExercisePick{
			{ExerciseID: 1, Sets: 3, RepsTarget: 8, Notes: ""},
		},
	}

	testCases := []struct {
		name    string
		draft   Draft
		wantErr bool
	}{
		{
			name:    "valid draft",
			draft:   Draft{Name: "Plan", Days: []Day{validDay}},
			wantErr: false,
		},
		{
			name:    "empty name",
			draft:   Draft{Name: "", Days: []Day{validDay}},
			wantErr: true,
		},
		{
			name:    "no days",
			draft:   Draft{Name: "Plan", Days: nil},
			wantErr: true,
		},
		{
			name: "weekday out of range",
			draft: Draft{Name: "Plan", Days: []Day{
				{Weekday: 7, Name: "Day", Exercises: validDay.Exercises},
			}},
			wantErr: true,
		},
		{
			name: "duplicate weekday",
			draft: Draft{Name: "Plan", Days: []Day{
				validDay,
				{Weekday: 1, Name: "Other", Exercises: validDay.Exercises},
			}},
			wantErr: true,
		},
		{
			name: "unknown exercise",
			draft: Draft{Name: "Plan", Days: []Day{
				{Weekday: 2, Name: "Day", Exercises: []ExercisePick{
					{ExerciseID: 999, Sets: 3, RepsTarget: 8, Notes: ""},
				}},
			}},
			wantErr: true,
		},
		{
			name: "zero sets",
			draft: Draft{Name: "Plan", Days: []Day{
				{Weekday: 2, Name: "Day", Exercises: []ExercisePick{
					{ExerciseID: 1, Sets: 0, RepsTarget: 8, Notes: ""},
				}},
			}},
			wantErr: true,
		},
		{
			name: "absurd rep target",
			draft: Draft{Name: "Plan", Days: []Day{
				{Weekday: 2, Name: "Day", Exercises: []ExercisePick{
					{ExerciseID: 1, Sets: 3, RepsTarget: 100, Notes: ""},
				}},
			}},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateDraft(tc.draft, catalog)
			if (err != nil) != tc.wantErr {
				t.Errorf("validateDraft() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestGroupByMuscleGroup_interleaves(t *testing.T) {
	interleaved := groupByMuscleGroup(testCatalog())

	if len(interleaved) != len(testCatalog()) {
		t.Fatalf("expected %d exercises, got %d", len(testCatalog()), len(interleaved))
	}

	// The first round should visit each muscle group once before any repeats.
	seen := make(map[string]bool)
	for _, exercise := range interleaved[:4] {
		if seen[exercise.MuscleGroup] {
			t.Errorf("muscle group %s repeated before all groups were visited", exercise.MuscleGroup)
		}
		seen[exercise.MuscleGroup] = true
	}
}
