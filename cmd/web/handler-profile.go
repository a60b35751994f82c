package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/myrjola/liftlog/internal/workout"
)

type profileTemplateData struct {
	BaseTemplateData
	Profile      workout.Profile
	Achievements []workout.Achievement
	MuscleGroups []string
}

func (app *application) profileGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile, err := app.workoutService.Profile(ctx)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("get profile: %w", err))
		return
	}

	achievements, err := app.workoutService.Achievements(ctx)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("list achievements: %w", err))
		return
	}

	muscleGroups, err := app.workoutService.MuscleGroups(ctx)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("list muscle groups: %w", err))
		return
	}

	data := profileTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Profile:          profile,
		Achievements:     achievements,
		MuscleGroups:     muscleGroups,
	}

	app.render(w, r, http.StatusOK, "profile", data)
}

func (app *application) profilePOST(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.serverError(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	displayName := strings.TrimSpace(r.PostForm.Get("display_name"))
	units := r.PostForm.Get("units")
	goals := strings.TrimSpace(r.PostForm.Get("goals"))

	if err := app.workoutService.UpdateProfile(r.Context(), displayName, units, goals); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	redirect(w, r, "/profile")
}

func (app *application) weeklyGoalPOST(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.serverError(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	goal, err := strconv.Atoi(r.PostForm.Get("weekly_goal"))
	if err != nil {
		http.Error(w, "invalid weekly goal", http.StatusUnprocessableEntity)
		return
	}

	if err = app.workoutService.SetWeeklyGoal(r.Context(), goal); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	redirect(w, r, "/profile")
}

func (app *application) exerciseCreatePOST(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		app.serverError(w, r, fmt.Errorf("parse form: %w", err))
		return
	}

	name := strings.TrimSpace(r.PostForm.Get("name"))
	muscleGroup := strings.TrimSpace(r.PostForm.Get("muscle_group"))
	equipment := strings.TrimSpace(r.PostForm.Get("equipment"))

	if _, err := app.workoutService.CreateExercise(r.Context(), name, muscleGroup, equipment); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	redirect(w, r, "/profile")
}
