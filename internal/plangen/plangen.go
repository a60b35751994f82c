// Package plangen drafts weekly workout plans from the user's goals and
// the exercise catalog using the OpenAI API.
package plangen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Exercise is a catalog entry the generator may pick from.
type Exercise struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	MuscleGroup string `json:"muscle_group"`
	Equipment   string `json:"equipment"`
}

// Draft is a generated weekly plan proposal. It is not persisted until the
// user accepts it.
type Draft struct {
	Name string `json:"name"`
	Days []Day  `json:"days"`
}

// Day is a single training day in a draft. Weekday is the calendar weekday,
// 0 = Sunday through 6 = Saturday.
type Day struct {
	Weekday   int            `json:"weekday"`
	Name      string         `json:"name"`
	Exercises []ExercisePick `json:"exercises"`
}

// ExercisePick prescribes an exercise with its set scheme.
type ExercisePick struct {
	ExerciseID int    `json:"exercise_id"`
	Sets       int    `json:"sets"`
	RepsTarget int    `json:"reps_target"`
	Notes      string `json:"notes"`
}

const (
	minTrainingDays = 1
	maxTrainingDays = 7
	maxSetsPerPick  = 10
	maxRepsTarget   = 30

	fallbackSets = 3
	fallbackReps = 8
)

// Generator drafts plans. Without an API key it falls back to a
// deterministic template so the feature works offline.
type Generator struct {
	client *openai.Client
	logger *slog.Logger
}

// New creates a plan generator. An empty API key disables the OpenAI
// integration and only the deterministic fallback is used.
func New(openaiAPIKey string, logger *slog.Logger) *Generator {
	var client *openai.Client
	if openaiAPIKey != "" {
		client = openai.NewClient(option.WithAPIKey(openaiAPIKey))
	}
	return &Generator{
		client: client,
		logger: logger,
	}
}

// Generate drafts a weekly plan for the given goals and number of training
// days per week, picking only from the provided catalog.
func (g *Generator) Generate(
	ctx context.Context,
	goals string,
	daysPerWeek int,
	catalog []Exercise,
) (Draft, error) {
	if len(catalog) == 0 {
		return Draft{}, errors.New("exercise catalog cannot be empty")
	}
	if daysPerWeek < minTrainingDays {
		daysPerWeek = minTrainingDays
	}
	if daysPerWeek > maxTrainingDays {
		daysPerWeek = maxTrainingDays
	}

	if g.client == nil {
		g.logger.LogAttrs(ctx, slog.LevelInfo, "no OpenAI API key, using fallback plan")
		return fallbackDraft(daysPerWeek, catalog), nil
	}

	draft, err := g.generateWithOpenAI(ctx, goals, daysPerWeek, catalog)
	if err != nil {
		return Draft{}, fmt.Errorf("generate plan: %w", err)
	}

	if err = validateDraft(draft, catalog); err != nil {
		return Draft{}, fmt.Errorf("validate generated plan: %w", err)
	}

	return draft, nil
}

func (g *Generator) generateWithOpenAI(
	ctx context.Context,
	goals string,
	daysPerWeek int,
	catalog []Exercise,
) (Draft, error) {
	prompt := buildPrompt(goals, daysPerWeek, catalog)

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        openai.F("weekly_plan"),
		Description: openai.F("A weekly workout plan drawn from the exercise catalog"),
		Schema:      openai.F(interface{}(draftJSONSchema{})),
		Strict:      openai.Bool(true),
	}

	chat, err := g.client.Chat.Completions.New(ctx,
		openai.ChatCompletionNewParams{ //nolint:exhaustruct // only need to set a few fields.
			Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			}),
			ResponseFormat: openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](
				openai.ResponseFormatJSONSchemaParam{
					Type:       openai.F(openai.ResponseFormatJSONSchemaTypeJSONSchema),
					JSONSchema: openai.F(schemaParam),
				},
			),
			Model: openai.F(openai.ChatModelGPT4o2024_08_06),
		})
	if err != nil {
		return Draft{}, fmt.Errorf("chat completion: %w", err)
	}

	var draft Draft
	if err = json.Unmarshal([]byte(chat.Choices[0].Message.Content), &draft); err != nil {
		return Draft{}, fmt.Errorf("parse plan response: %w", err)
	}

	return draft, nil
}

func buildPrompt(goals string, daysPerWeek int, catalog []Exercise) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Design a weekly workout plan with exactly %d training days.

User goals: %s

Guidelines:
- Spread the training days across the week with rest days in between where possible.
- Give each day a short descriptive name like "Push Day" or "Legs".
- Pick 4-6 exercises per day, ordered compound movements first.
- Prescribe 3-5 sets of 5-12 reps per exercise depending on the goals.
- Only use exercise IDs from the catalog below.

Exercise catalog (id, name, muscle group, equipment):
`, daysPerWeek, goals)

	for _, exercise := range catalog {
		fmt.Fprintf(&b, "%d, %s, %s, %s\n",
			exercise.ID, exercise.Name, exercise.MuscleGroup, exercise.Equipment)
	}

	return b.String()
}

// validateDraft rejects drafts that reference unknown exercises or
// prescribe nonsensical set schemes.
func validateDraft(draft Draft, catalog []Exercise) error {
	if draft.Name == "" {
		return errors.New("plan name is empty")
	}
	if len(draft.Days) == 0 {
		return errors.New("plan has no training days")
	}

	known := make(map[int]bool, len(catalog))
	for _, exercise := range catalog {
		known[exercise.ID] = true
	}

	seenWeekdays := make(map[int]bool)
	for _, day := range draft.Days {
		if day.Weekday < 0 || day.Weekday > 6 {
			return fmt.Errorf("invalid weekday %d", day.Weekday)
		}
		if seenWeekdays[day.Weekday] {
			return fmt.Errorf("duplicate weekday %d", day.Weekday)
		}
		seenWeekdays[day.Weekday] = true
		if len(day.Exercises) == 0 {
			return fmt.Errorf("day %q has no exercises", day.Name)
		}
		for _, pick := range day.Exercises {
			if !known[pick.ExerciseID] {
				return fmt.Errorf("unknown exercise %d", pick.ExerciseID)
			}
			if pick.Sets < 1 || pick.Sets > maxSetsPerPick {
				return fmt.Errorf("exercise %d has invalid set count %d", pick.ExerciseID, pick.Sets)
			}
			if pick.RepsTarget < 1 || pick.RepsTarget > maxRepsTarget {
				return fmt.Errorf("exercise %d has invalid rep target %d", pick.ExerciseID, pick.RepsTarget)
			}
		}
	}

	return nil
}

// fallbackWeekdays maps training days per week to a sensible spread over
// the calendar week. Weekdays use 0 = Sunday.
//
//nolint:gochecknoglobals // lookup table
var fallbackWeekdays = map[int][]int{
	1: {int(time.Monday)},
	2: {int(time.Monday), int(time.Thursday)},
	3: {int(time.Monday), int(time.Wednesday), int(time.Friday)},
	4: {int(time.Monday), int(time.Tuesday), int(time.Thursday), int(time.Friday)},
	5: {int(time.Monday), int(time.Tuesday), int(time.Wednesday), int(time.Thursday), int(time.Friday)},
	6: {int(time.Monday), int(time.Tuesday), int(time.Wednesday), int(time.Thursday), int(time.Friday), int(time.Saturday)},
	7: {int(time.Sunday), int(time.Monday), int(time.Tuesday), int(time.Wednesday), int(time.Thursday), int(time.Friday), int(time.Saturday)},
}

const fallbackExercisesPerDay = 5

// fallbackDraft builds a deterministic plan by rotating through the muscle
// groups of the catalog. It keeps the feature usable without an API key.
func fallbackDraft(daysPerWeek int, catalog []Exercise) Draft {
	grouped := groupByMuscleGroup(catalog)

	days := make([]Day, 0, daysPerWeek)
	offset := 0
	for i, weekday := range fallbackWeekdays[daysPerWeek] {
		picked := pickRotating(grouped, offset, fallbackExercisesPerDay)
		offset += len(picked)

		picks := make([]ExercisePick, 0, len(picked))
		for _, exercise := range picked {
			picks = append(picks, ExercisePick{
				ExerciseID: exercise.ID,
				Sets:       fallbackSets,
				RepsTarget: fallbackReps,
				Notes:      "",
			})
		}

		days = append(days, Day{
			Weekday:   weekday,
			Name:      fmt.Sprintf("Full Body %d", i+1),
			Exercises: picks,
		})
	}

	return Draft{
		Name: "Starter Plan",
		Days: days,
	}
}

// groupByMuscleGroup orders the catalog so that consecutive picks cycle
// through the muscle groups instead of exhausting one group at a time.
func groupByMuscleGroup(catalog []Exercise) []Exercise {
	byGroup := make(map[string][]Exercise)
	var groups []string
	for _, exercise := range catalog {
		if _, ok := byGroup[exercise.MuscleGroup]; !ok {
			groups = append(groups, exercise.MuscleGroup)
		}
		byGroup[exercise.MuscleGroup] = append(byGroup[exercise.MuscleGroup], exercise)
	}

	var interleaved []Exercise
	for round := 0; ; round++ {
		added := false
		for _, group := range groups {
			if round < len(byGroup[group]) {
				interleaved = append(interleaved, byGroup[group][round])
				added = true
			}
		}
		if !added {
			break
		}
	}
	return interleaved
}

// pickRotating takes count exercises starting at offset, wrapping around
// the pool so later days keep getting fresh movements.
func pickRotating(pool []Exercise, offset, count int) []Exercise {
	if count > len(pool) {
		count = len(pool)
	}
	picked := make([]Exercise, 0, count)
	for i := range count {
		picked = append(picked, pool[(offset+i)%len(pool)])
	}
	return picked
}
