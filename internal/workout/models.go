package workout

import (
	"time"
)

// Exercise represents a catalog entry, e.g. Squat, Bench Press, etc.
// Global exercises have a nil UserID; custom ones belong to a single user.
type Exercise struct {
	ID          int
	Name        string
	MuscleGroup string
	Equipment   string
	UserID      *int
}

// Plan represents a weekly workout plan with its full day/exercise/set tree.
type Plan struct {
	ID        int
	Name      string
	Active    bool
	CreatedAt time.Time
	Days      []PlanDay
}

// PlanDay holds the exercises scheduled for one weekday of a plan.
type PlanDay struct {
	ID        int
	Weekday   time.Weekday
	Name      string
	Exercises []PlanExercise
}

// PlanExercise is an exercise slot within a plan day.
type PlanExercise struct {
	ID          int
	ExerciseID  int
	Position    int
	RestSeconds *int
	Sets        []PlanSet
}

// PlanSet is the rep target for a single planned set.
type PlanSet struct {
	RepsTarget int
	Notes      string
}

// PlanDraft is the input for creating a plan. IDs are assigned on insert.
type PlanDraft struct {
	Name string
	Days []PlanDay
}

// Session represents a logged workout for one date. PlanID and Weekday are
// snapshots taken from the active plan when the session was created.
type Session struct {
	ID          int
	Date        time.Time
	PlanID      *int
	Weekday     *time.Weekday
	CompletedAt *time.Time
	Notes       string
	Sets        []SetEntry
}

// Completed reports whether the session has been marked done.
func (s Session) Completed() bool {
	return s.CompletedAt != nil
}

// SetEntry is a single logged set.
type SetEntry struct {
	ExerciseID int
	SetIndex   int
	Reps       int
	WeightKg   float64
	RPE        *int
}

// Profile stores per-user settings and the streak high-water marks.
type Profile struct {
	UserID          int
	Email           string
	DisplayName     string
	Units           string
	Goals           string
	WeeklyGoal      int
	CurrentStreak   int
	LongestStreak   int
	LastWorkoutDate time.Time
}

// Achievement is an unlocked badge. Type is stable (e.g. "streak_7");
// Label is the display name.
type Achievement struct {
	ID         int
	Type       string
	Label      string
	UnlockedAt time.Time
}

// HistoryPoint is one session's performance for a single exercise.
type HistoryPoint struct {
	Date         time.Time
	Sets         []SetEntry
	TopSet       SetEntry
	Estimated1RM float64
	Volume       float64
}

// ExerciseHistory is the progress series for one exercise, ascending by date.
type ExerciseHistory struct {
	ExerciseID   int
	Name         string
	BestWeightKg float64
	Points       []HistoryPoint
}

// ExerciseStat is the all-time dashboard summary for one logged exercise.
type ExerciseStat struct {
	ExerciseID     int
	Name           string
	MuscleGroup    string
	LastWeightKg   float64
	LastDate       time.Time
	SessionCount   int
	TotalVolume    float64
	BestWeightKg   float64
	BestWeightDate time.Time
	OldestWeightKg float64
	// RecentPR reports whether the best weight was set within the last week.
	RecentPR bool
}

// WeekSummary aggregates the sessions of one Monday-start week. Completed
// counts the subset marked done; volume and exercises cover all sets.
type WeekSummary struct {
	WeekStart   time.Time
	Sessions    int
	Completed   int
	TotalVolume float64
	Exercises   int
}

// SessionDigest is a completed session with its set count, for recent lists.
type SessionDigest struct {
	Date        time.Time
	CompletedAt time.Time
	SetCount    int
	Volume      float64
	Notes       string
}

// StreakData is the dashboard view of the streak engine.
type StreakData struct {
	CurrentStreak   int
	LongestStreak   int
	WeeklyGoal      int
	WeeklyCompleted int
	LastWorkoutDate time.Time
	IsWorkoutToday  bool
	CompletedToday  bool
}

// StreakStatus classifies today from the streak engine's point of view.
type StreakStatus string

const (
	StreakCompleted StreakStatus = "completed"
	StreakAtRisk    StreakStatus = "at_risk"
	StreakBroken    StreakStatus = "broken"
	StreakNone      StreakStatus = "none"
)

// SuggestionKind tags a progression suggestion.
type SuggestionKind string

const (
	SuggestionIncrease     SuggestionKind = "increase"
	SuggestionDecrease     SuggestionKind = "decrease"
	SuggestionMaintain     SuggestionKind = "maintain"
	SuggestionInsufficient SuggestionKind = "insufficient_data"
)

// Suggestion is the progression advice for one exercise. NewWeightKg and
// AmountKg are zero unless Kind is increase or decrease.
type Suggestion struct {
	Kind        SuggestionKind
	NewWeightKg float64
	AmountKg    float64
	Reason      string
}

// BatchSuggestion extends Suggestion with the weights a log form needs.
type BatchSuggestion struct {
	ExerciseID        int
	Suggestion        Suggestion
	SuggestedWeightKg float64
	LastWeightKg      float64
}
