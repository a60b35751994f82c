package main

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/myrjola/liftlog/internal/errors"
	"github.com/myrjola/liftlog/internal/workout"
)

// logExerciseView is the per-exercise block on the logging page.
type logExerciseView struct {
	ExerciseID int
	Name       string
	// PlannedSets are the rep targets from the plan snapshot, empty for
	// exercises logged outside the plan.
	PlannedSets []workout.PlanSet
	// LoggedSets are the sets recorded so far, ordered by set index.
	LoggedSets []workout.SetEntry
	// Suggestion is the progression advice based on recent history.
	Suggestion workout.Suggestion
	// SuggestedWeightKg prefills the weight input.
	SuggestedWeightKg float64
	// LastWeightKg is the top-set weight from the latest completed session.
	LastWeightKg float64
	// NextSetIndex is the index the next logged set should use.
	NextSetIndex int
}

type logTemplateData struct {
	BaseTemplateData
	Date      time.Time
	Session   workout.Session
	Exercises []logExerciseView
	// Catalog lists all exercises for logging outside the plan.
	Catalog []workout.Exercise
}

func (app *application) logGET(w http.ResponseWriter, r *http.Request) {
	date, ok := app.parseDateParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	session, err := app.workoutService.GetOrCreateSession(ctx, date)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("get or create session: %w", err))
		return
	}

	plannedDay, err := app.planSnapshotDay(r, session)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("plan snapshot day: %w", err))
		return
	}

	views, err := app.buildLogExerciseViews(r, session, plannedDay)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("build exercise views: %w", err))
		return
	}

	catalog, err := app.workoutService.Exercises(ctx)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("list exercises: %w", err))
		return
	}

	data := logTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Date:             date,
		Session:          session,
		Exercises:        views,
		Catalog:          catalog,
	}

	app.render(w, r, http.StatusOK, "log", data)
}

// planSnapshotDay resolves the planned exercises for a session from its
// plan snapshot. Sessions without a snapshot, or whose plan has since been
// deleted, have no planned day.
func (app *application) planSnapshotDay(r *http.Request, session workout.Session) (workout.PlanDay, error) {
	if session.PlanID == nil || session.Weekday == nil {
		return workout.PlanDay{}, nil
	}

	plan, err := app.workoutService.Plan(r.Context(), *session.PlanID)
	if errors.Is(err, workout.ErrNotFound) {
		return workout.PlanDay{}, nil
	}
	if err != nil {
		return workout.PlanDay{}, fmt.Errorf("get plan: %w", err)
	}

	for _, day := range plan.Days {
		if day.Weekday == *session.Weekday {
			return day, nil
		}
	}
	return workout.PlanDay{}, nil
}

func (app *application) buildLogExerciseViews(
	r *http.Request,
	session workout.Session,
	plannedDay workout.PlanDay,
) ([]logExerciseView, error) {
	ctx := r.Context()

	// Planned exercises first in plan order, then any extras that were
	// logged outside the plan.
	var exerciseIDs []int
	seen := make(map[int]bool)
	for _, planExercise := range plannedDay.Exercises {
		exerciseIDs = append(exerciseIDs, planExercise.ExerciseID)
		seen[planExercise.ExerciseID] = true
	}
	for _, set := range session.Sets {
		if !seen[set.ExerciseID] {
			exerciseIDs = append(exerciseIDs, set.ExerciseID)
			seen[set.ExerciseID] = true
		}
	}

	if len(exerciseIDs) == 0 {
		return nil, nil
	}

	suggestions, err := app.workoutService.BatchSuggestions(ctx, exerciseIDs, 0)
	if err != nil {
		return nil, fmt.Errorf("batch suggestions: %w", err)
	}
	suggestionsByID := make(map[int]workout.BatchSuggestion, len(suggestions))
	for _, suggestion := range suggestions {
		suggestionsByID[suggestion.ExerciseID] = suggestion
	}

	names, err := app.exerciseNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("exercise names: %w", err)
	}

	plannedByID := make(map[int][]workout.PlanSet, len(plannedDay.Exercises))
	for _, planExercise := range plannedDay.Exercises {
		plannedByID[planExercise.ExerciseID] = planExercise.Sets
	}

	loggedByID := make(map[int][]workout.SetEntry)
	for _, set := range session.Sets {
		loggedByID[set.ExerciseID] = append(loggedByID[set.ExerciseID], set)
	}

	views := make([]logExerciseView, 0, len(exerciseIDs))
	for _, exerciseID := range exerciseIDs {
		logged := loggedByID[exerciseID]
		sort.Slice(logged, func(i, j int) bool { return logged[i].SetIndex < logged[j].SetIndex })

		nextSetIndex := 0
		if len(logged) > 0 {
			nextSetIndex = logged[len(logged)-1].SetIndex + 1
		}

		suggestion := suggestionsByID[exerciseID]
		views = append(views, logExerciseView{
			ExerciseID:        exerciseID,
			Name:              names[exerciseID],
			PlannedSets:       plannedByID[exerciseID],
			LoggedSets:        logged,
			Suggestion:        suggestion.Suggestion,
			SuggestedWeightKg: suggestion.SuggestedWeightKg,
			LastWeightKg:      suggestion.LastWeightKg,
			NextSetIndex:      nextSetIndex,
		})
	}

	return views, nil
}

func (app *application) logSetPOST(w http.ResponseWriter, r *http.Request) {
	date, ok := app.parseDateParam(w, r)
	if !ok {
		return
	}
	exerciseID, ok := app.parseExerciseIDParam(w, r)
	if !ok {
		return
	}
	setIndex, ok := app.parseIntParam(w, r, "setIndex")
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		app.serverError(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	reps, err := strconv.Atoi(r.PostForm.Get("reps"))
	if err != nil {
		http.Error(w, "invalid reps", http.StatusUnprocessableEntity)
		return
	}
	weightKg, err := strconv.ParseFloat(r.PostForm.Get("weight_kg"), 64)
	if err != nil {
		http.Error(w, "invalid weight", http.StatusUnprocessableEntity)
		return
	}

	var rpe *int
	if rpeStr := r.PostForm.Get("rpe"); rpeStr != "" {
		rpeValue, rpeErr := strconv.Atoi(rpeStr)
		if rpeErr != nil {
			http.Error(w, "invalid RPE", http.StatusUnprocessableEntity)
			return
		}
		rpe = &rpeValue
	}

	entry := workout.SetEntry{
		ExerciseID: exerciseID,
		SetIndex:   setIndex,
		Reps:       reps,
		WeightKg:   weightKg,
		RPE:        rpe,
	}
	if err = app.workoutService.LogSet(r.Context(), date, entry); err != nil {
		if errors.Is(err, workout.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.serverError(w, r, fmt.Errorf("log set: %w", err))
		return
	}

	redirect(w, r, fmt.Sprintf("/log/%s", date.Format(time.DateOnly)))
}

// logAddExercisePOST logs the first set of an exercise outside the plan.
// The exercise is picked from a select so it arrives as a form field rather
// than a path parameter, and the set index is the next free one.
func (app *application) logAddExercisePOST(w http.ResponseWriter, r *http.Request) {
	date, ok := app.parseDateParam(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		app.serverError(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	exerciseID, err := strconv.Atoi(r.PostForm.Get("exercise_id"))
	if err != nil {
		http.Error(w, "invalid exercise", http.StatusUnprocessableEntity)
		return
	}
	reps, err := strconv.Atoi(r.PostForm.Get("reps"))
	if err != nil {
		http.Error(w, "invalid reps", http.StatusUnprocessableEntity)
		return
	}
	weightKg, err := strconv.ParseFloat(r.PostForm.Get("weight_kg"), 64)
	if err != nil {
		http.Error(w, "invalid weight", http.StatusUnprocessableEntity)
		return
	}

	session, err := app.workoutService.GetOrCreateSession(r.Context(), date)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("get or create session: %w", err))
		return
	}
	nextSetIndex := 0
	for _, set := range session.Sets {
		if set.ExerciseID == exerciseID && set.SetIndex >= nextSetIndex {
			nextSetIndex = set.SetIndex + 1
		}
	}

	entry := workout.SetEntry{
		ExerciseID: exerciseID,
		SetIndex:   nextSetIndex,
		Reps:       reps,
		WeightKg:   weightKg,
		RPE:        nil,
	}
	if err = app.workoutService.LogSet(r.Context(), date, entry); err != nil {
		if errors.Is(err, workout.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		app.serverError(w, r, fmt.Errorf("log set: %w", err))
		return
	}

	redirect(w, r, fmt.Sprintf("/log/%s", date.Format(time.DateOnly)))
}

func (app *application) logCompletePOST(w http.ResponseWriter, r *http.Request) {
	date, ok := app.parseDateParam(w, r)
	if !ok {
		return
	}

	if _, err := app.workoutService.CompleteSession(r.Context(), date); err != nil {
		app.serverError(w, r, fmt.Errorf("complete session: %w", err))
		return
	}

	redirect(w, r, "/")
}

func (app *application) logNotesPOST(w http.ResponseWriter, r *http.Request) {
	date, ok := app.parseDateParam(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		app.serverError(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	if err := app.workoutService.UpdateSessionNotes(r.Context(), date, r.PostForm.Get("notes")); err != nil {
		app.serverError(w, r, fmt.Errorf("update session notes: %w", err))
		return
	}

	redirect(w, r, fmt.Sprintf("/log/%s", date.Format(time.DateOnly)))
}
