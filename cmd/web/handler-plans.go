package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/myrjola/liftlog/internal/errors"
	"github.com/myrjola/liftlog/internal/plangen"
	"github.com/myrjola/liftlog/internal/workout"
)

type plansTemplateData struct {
	BaseTemplateData
	Plans         []workout.Plan
	ExerciseNames map[int]string
}

func (app *application) plansGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	plans, err := app.workoutService.Plans(ctx)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("list plans: %w", err))
		return
	}

	names, err := app.exerciseNames(ctx)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("exercise names: %w", err))
		return
	}

	data := plansTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Plans:            plans,
		ExerciseNames:    names,
	}

	app.render(w, r, http.StatusOK, "plans", data)
}

// weekdayOption is a weekday row in the plan form, in calendar order
// starting from Sunday.
type weekdayOption struct {
	Value int
	Name  string
}

type planFormTemplateData struct {
	BaseTemplateData
	Weekdays []weekdayOption
	Catalog  []workout.Exercise
}

func weekdayOptions() []weekdayOption {
	options := make([]weekdayOption, 0, 7)
	for weekday := range 7 {
		options = append(options, weekdayOption{
			Value: weekday,
			Name:  time.Weekday(weekday).String(),
		})
	}
	return options
}

func (app *application) planNewGET(w http.ResponseWriter, r *http.Request) {
	catalog, err := app.workoutService.Exercises(r.Context())
	if err != nil {
		app.serverError(w, r, fmt.Errorf("list exercises: %w", err))
		return
	}

	data := planFormTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Weekdays:         weekdayOptions(),
		Catalog:          catalog,
	}

	app.render(w, r, http.StatusOK, "plan-form", data)
}

// parsePlanForm builds a plan draft from the submitted form. Each weekday
// has a name field, a comma-separated exercise ID list, and a shared
// sets/reps scheme. Weekdays with no exercises are rest days.
func parsePlanForm(r *http.Request) (workout.PlanDraft, error) {
	draft := workout.PlanDraft{
		Name: strings.TrimSpace(r.PostForm.Get("name")),
		Days: nil,
	}

	for weekday := range 7 {
		exercisesField := strings.TrimSpace(r.PostForm.Get(fmt.Sprintf("day_%d_exercises", weekday)))
		if exercisesField == "" {
			continue
		}

		sets := formInt(r, fmt.Sprintf("day_%d_sets", weekday), 3)
		reps := formInt(r, fmt.Sprintf("day_%d_reps", weekday), 8)
		if sets < 1 || sets > 10 || reps < 1 || reps > 30 {
			return workout.PlanDraft{}, fmt.Errorf("invalid set scheme %dx%d for weekday %d", sets, reps, weekday)
		}

		planSets := make([]workout.PlanSet, sets)
		for i := range planSets {
			planSets[i] = workout.PlanSet{RepsTarget: reps, Notes: ""}
		}

		var exercises []workout.PlanExercise
		for position, idField := range strings.Split(exercisesField, ",") {
			exerciseID, err := strconv.Atoi(strings.TrimSpace(idField))
			if err != nil {
				return workout.PlanDraft{}, fmt.Errorf("invalid exercise ID %q: %w", idField, err)
			}
			exercises = append(exercises, workout.PlanExercise{ //nolint:exhaustruct // ID assigned on insert.
				ExerciseID: exerciseID,
				Position:   position,
				Sets:       planSets,
			})
		}

		draft.Days = append(draft.Days, workout.PlanDay{ //nolint:exhaustruct // ID assigned on insert.
			Weekday:   time.Weekday(weekday),
			Name:      strings.TrimSpace(r.PostForm.Get(fmt.Sprintf("day_%d_name", weekday))),
			Exercises: exercises,
		})
	}

	return draft, nil
}

func formInt(r *http.Request, field string, fallback int) int {
	value, err := strconv.Atoi(r.PostForm.Get(field))
	if err != nil {
		return fallback
	}
	return value
}

func (app *application) planCreatePOST(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.serverError(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	draft, err := parsePlanForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if _, err = app.workoutService.CreatePlan(r.Context(), draft); err != nil {
		app.serverError(w, r, fmt.Errorf("create plan: %w", err))
		return
	}

	redirect(w, r, "/plans")
}

// planGeneratePOST drafts a plan from the user's goals and saves it as the
// new active plan.
func (app *application) planGeneratePOST(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		app.serverError(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	profile, err := app.workoutService.Profile(ctx)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("get profile: %w", err))
		return
	}

	goals := strings.TrimSpace(r.PostForm.Get("goals"))
	if goals == "" {
		goals = profile.Goals
	}

	catalog, err := app.workoutService.Exercises(ctx)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("list exercises: %w", err))
		return
	}
	genCatalog := make([]plangen.Exercise, 0, len(catalog))
	for _, exercise := range catalog {
		genCatalog = append(genCatalog, plangen.Exercise{
			ID:          exercise.ID,
			Name:        exercise.Name,
			MuscleGroup: exercise.MuscleGroup,
			Equipment:   exercise.Equipment,
		})
	}

	generated, err := app.planGenerator.Generate(ctx, goals, profile.WeeklyGoal, genCatalog)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("generate plan: %w", err))
		return
	}

	if _, err = app.workoutService.CreatePlan(ctx, draftFromGenerated(generated)); err != nil {
		app.serverError(w, r, fmt.Errorf("create generated plan: %w", err))
		return
	}

	redirect(w, r, "/plans")
}

// draftFromGenerated converts a generated draft into the plan input.
func draftFromGenerated(generated plangen.Draft) workout.PlanDraft {
	draft := workout.PlanDraft{
		Name: generated.Name,
		Days: make([]workout.PlanDay, 0, len(generated.Days)),
	}
	for _, day := range generated.Days {
		exercises := make([]workout.PlanExercise, 0, len(day.Exercises))
		for position, pick := range day.Exercises {
			sets := make([]workout.PlanSet, pick.Sets)
			for i := range sets {
				sets[i] = workout.PlanSet{RepsTarget: pick.RepsTarget, Notes: pick.Notes}
			}
			exercises = append(exercises, workout.PlanExercise{ //nolint:exhaustruct // ID assigned on insert.
				ExerciseID: pick.ExerciseID,
				Position:   position,
				Sets:       sets,
			})
		}
		draft.Days = append(draft.Days, workout.PlanDay{ //nolint:exhaustruct // ID assigned on insert.
			Weekday:   time.Weekday(day.Weekday),
			Name:      day.Name,
			Exercises: exercises,
		})
	}
	return draft
}

func (app *application) planActivatePOST(w http.ResponseWriter, r *http.Request) {
	planID, ok := app.parseIntParam(w, r, "planID")
	if !ok {
		return
	}

	if err := app.workoutService.SetActivePlan(r.Context(), planID); err != nil {
		if errors.Is(err, workout.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.serverError(w, r, fmt.Errorf("activate plan: %w", err))
		return
	}

	redirect(w, r, "/plans")
}

func (app *application) planDeletePOST(w http.ResponseWriter, r *http.Request) {
	planID, ok := app.parseIntParam(w, r, "planID")
	if !ok {
		return
	}

	if err := app.workoutService.DeletePlan(r.Context(), planID); err != nil {
		if errors.Is(err, workout.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.serverError(w, r, fmt.Errorf("delete plan: %w", err))
		return
	}

	redirect(w, r, "/plans")
}
