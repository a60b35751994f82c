package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/myrjola/liftlog/internal/workout"
)

type homeTemplateData struct {
	BaseTemplateData
	// Today is the date the dashboard is rendered for.
	Today time.Time
	// Streak is the streak dashboard data.
	Streak workout.StreakData
	// Status classifies today for the streak banner.
	Status workout.StreakStatus
	// HasWorkout is true when the active plan schedules a workout today.
	HasWorkout bool
	// Day is the planned workout for today when HasWorkout is true.
	Day workout.PlanDay
	// ExerciseNames maps exercise IDs to display names.
	ExerciseNames map[int]string
	// LastWeights maps planned exercise IDs to their most recently logged
	// weight. Exercises never logged are absent.
	LastWeights map[int]float64
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now()

	data := homeTemplateData{ //nolint:exhaustruct // zero values until authenticated.
		BaseTemplateData: newBaseTemplateData(r),
		Today:            now,
	}

	// Only fetch workout data for authenticated users
	if data.Authenticated {
		streak, err := app.workoutService.StreakData(ctx, now)
		if err != nil {
			app.serverError(w, r, fmt.Errorf("streak data: %w", err))
			return
		}
		data.Streak = streak

		status, err := app.workoutService.StreakStatus(ctx, now)
		if err != nil {
			app.serverError(w, r, fmt.Errorf("streak status: %w", err))
			return
		}
		data.Status = status

		day, hasWorkout, err := app.workoutService.TodayTemplate(ctx, now)
		if err != nil {
			app.serverError(w, r, fmt.Errorf("today template: %w", err))
			return
		}
		data.HasWorkout = hasWorkout
		data.Day = day

		if data.ExerciseNames, err = app.exerciseNames(ctx); err != nil {
			app.serverError(w, r, fmt.Errorf("exercise names: %w", err))
			return
		}

		if hasWorkout {
			exerciseIDs := make([]int, 0, len(day.Exercises))
			for _, planExercise := range day.Exercises {
				exerciseIDs = append(exerciseIDs, planExercise.ExerciseID)
			}
			if data.LastWeights, err = app.workoutService.LastWeights(ctx, exerciseIDs); err != nil {
				app.serverError(w, r, fmt.Errorf("last weights: %w", err))
				return
			}
		}
	}

	app.render(w, r, http.StatusOK, "home", data)
}
