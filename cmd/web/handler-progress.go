package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/myrjola/liftlog/internal/errors"
	"github.com/myrjola/liftlog/internal/workout"
)

type progressTemplateData struct {
	BaseTemplateData
	// Weeks are the weekly summaries, oldest first.
	Weeks []workout.WeekSummary
	// Recent lists the latest completed sessions, newest first.
	Recent []workout.SessionDigest
	// Stats summarizes every exercise the user has logged, newest first.
	Stats []workout.ExerciseStat
	// Catalog links to the per-exercise progress pages.
	Catalog []workout.Exercise
	// MaxWeekVolume scales the bar chart.
	MaxWeekVolume float64
}

func (app *application) progressGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now()

	weeks, err := app.workoutService.WeeklySummary(ctx, now, 0)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("weekly summary: %w", err))
		return
	}

	recent, err := app.workoutService.RecentSessions(ctx, 0)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("recent sessions: %w", err))
		return
	}

	stats, err := app.workoutService.AllExerciseStats(ctx, now)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("exercise stats: %w", err))
		return
	}

	catalog, err := app.workoutService.Exercises(ctx)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("list exercises: %w", err))
		return
	}

	maxVolume := 0.0
	for _, week := range weeks {
		if week.TotalVolume > maxVolume {
			maxVolume = week.TotalVolume
		}
	}

	data := progressTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Weeks:            weeks,
		Recent:           recent,
		Stats:            stats,
		Catalog:          catalog,
		MaxWeekVolume:    maxVolume,
	}

	app.render(w, r, http.StatusOK, "progress", data)
}

type exerciseProgressTemplateData struct {
	BaseTemplateData
	Exercise   workout.Exercise
	History    workout.ExerciseHistory
	Suggestion workout.Suggestion
}

func (app *application) exerciseProgressGET(w http.ResponseWriter, r *http.Request) {
	exerciseID, ok := app.parseExerciseIDParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	exercise, err := app.workoutService.Exercise(ctx, exerciseID)
	if errors.Is(err, workout.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		app.serverError(w, r, fmt.Errorf("get exercise: %w", err))
		return
	}

	history, err := app.workoutService.ExerciseHistory(ctx, exerciseID, time.Now(), 0)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("exercise history: %w", err))
		return
	}

	suggestion, err := app.workoutService.ExerciseSuggestion(ctx, exerciseID, 0)
	if err != nil {
		app.serverError(w, r, fmt.Errorf("exercise suggestion: %w", err))
		return
	}

	data := exerciseProgressTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Exercise:         exercise,
		History:          history,
		Suggestion:       suggestion,
	}

	app.render(w, r, http.StatusOK, "exercise-progress", data)
}
