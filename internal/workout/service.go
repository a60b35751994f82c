package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/liftlog/internal/ptr"
	"github.com/myrjola/liftlog/internal/sqlite"
)

// Service handles the business logic for workout tracking.
type Service struct {
	repo   *repository
	logger *slog.Logger
}

// NewService creates a new workout service.
func NewService(db *sqlite.Database, logger *slog.Logger) *Service {
	factory := newRepositoryFactory(db, logger)
	return &Service{
		repo:   factory.newRepository(),
		logger: logger,
	}
}

// EnsureUser looks up a user by email, creating the account on first sign-in,
// and returns the user ID.
func (s *Service) EnsureUser(ctx context.Context, email string) (int, error) {
	userID, err := s.repo.profiles.FindOrCreate(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("ensure user: %w", err)
	}
	return userID, nil
}

// GetOrCreateSession returns the session for a date, creating it on first
// use. A freshly created session snapshots the active plan's ID and the
// date's weekday so later plan edits do not rewrite history.
func (s *Service) GetOrCreateSession(ctx context.Context, date time.Time) (Session, error) {
	session, err := s.repo.sessions.Get(ctx, date)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Session{}, fmt.Errorf("get session %s: %w", formatDate(date), err)
	}

	var planID *int
	if plan, planErr := s.repo.plans.GetActive(ctx); planErr == nil {
		planID = ptr.Ref(plan.ID)
	} else if !errors.Is(planErr, ErrNotFound) {
		return Session{}, fmt.Errorf("get active plan: %w", planErr)
	}

	session, err = s.repo.sessions.Create(ctx, date, planID, ptr.Ref(date.Weekday()))
	if err != nil {
		return Session{}, fmt.Errorf("create session %s: %w", formatDate(date), err)
	}

	return session, nil
}

// Session retrieves the session for a date without creating one.
func (s *Service) Session(ctx context.Context, date time.Time) (Session, error) {
	session, err := s.repo.sessions.Get(ctx, date)
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", formatDate(date), err)
	}
	return session, nil
}

// LogSet records one set for a date, replacing an earlier entry in the same
// set slot. The session is created on demand.
func (s *Service) LogSet(ctx context.Context, date time.Time, entry SetEntry) error {
	if entry.Reps < 0 {
		return fmt.Errorf("invalid reps %d", entry.Reps)
	}
	if entry.WeightKg < 0 {
		return fmt.Errorf("invalid weight %f", entry.WeightKg)
	}
	if entry.SetIndex < 0 {
		return fmt.Errorf("invalid set index %d", entry.SetIndex)
	}
	if entry.RPE != nil && (*entry.RPE < 1 || *entry.RPE > 10) {
		return fmt.Errorf("invalid RPE %d", *entry.RPE)
	}

	if _, err := s.repo.exercises.Get(ctx, entry.ExerciseID); err != nil {
		return fmt.Errorf("get exercise %d: %w", entry.ExerciseID, err)
	}

	session, err := s.GetOrCreateSession(ctx, date)
	if err != nil {
		return err
	}

	if err = s.repo.sessions.UpsertSet(ctx, session.ID, entry); err != nil {
		return fmt.Errorf("log set for session %s: %w", formatDate(date), err)
	}

	return nil
}

// UpdateSessionNotes replaces the notes of the session for a date.
func (s *Service) UpdateSessionNotes(ctx context.Context, date time.Time, notes string) error {
	if err := s.repo.sessions.UpdateNotes(ctx, date, notes); err != nil {
		return fmt.Errorf("update notes for session %s: %w", formatDate(date), err)
	}
	return nil
}

// Exercises lists the global catalog plus the user's custom exercises.
func (s *Service) Exercises(ctx context.Context) ([]Exercise, error) {
	exercises, err := s.repo.exercises.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return exercises, nil
}

// Exercise retrieves a single exercise by ID.
func (s *Service) Exercise(ctx context.Context, id int) (Exercise, error) {
	exercise, err := s.repo.exercises.Get(ctx, id)
	if err != nil {
		return Exercise{}, fmt.Errorf("get exercise %d: %w", id, err)
	}
	return exercise, nil
}

// CreateExercise adds a custom exercise for the user.
func (s *Service) CreateExercise(ctx context.Context, name, muscleGroup, equipment string) (Exercise, error) {
	if name == "" {
		return Exercise{}, errors.New("exercise name cannot be empty")
	}

	exercise, err := s.repo.exercises.Create(ctx, Exercise{
		Name:        name,
		MuscleGroup: muscleGroup,
		Equipment:   equipment,
	})
	if err != nil {
		return Exercise{}, fmt.Errorf("create exercise: %w", err)
	}

	return exercise, nil
}

// MuscleGroups retrieves the distinct muscle groups in the catalog.
func (s *Service) MuscleGroups(ctx context.Context) ([]string, error) {
	groups, err := s.repo.exercises.ListMuscleGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list muscle groups: %w", err)
	}
	return groups, nil
}

// ActivePlan retrieves the user's active plan. ErrNotFound means the user
// has no active plan.
func (s *Service) ActivePlan(ctx context.Context) (Plan, error) {
	plan, err := s.repo.plans.GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Plan{}, ErrNotFound
		}
		return Plan{}, fmt.Errorf("get active plan: %w", err)
	}
	return plan, nil
}

// Plans lists all of the user's plans, newest first.
func (s *Service) Plans(ctx context.Context) ([]Plan, error) {
	plans, err := s.repo.plans.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// Plan retrieves a plan by ID with its full tree.
func (s *Service) Plan(ctx context.Context, id int) (Plan, error) {
	plan, err := s.repo.plans.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Plan{}, ErrNotFound
		}
		return Plan{}, fmt.Errorf("get plan %d: %w", id, err)
	}
	return plan, nil
}

// CreatePlan stores a new plan as the active one. Earlier plans are kept
// but deactivated.
func (s *Service) CreatePlan(ctx context.Context, draft PlanDraft) (Plan, error) {
	if draft.Name == "" {
		return Plan{}, errors.New("plan name cannot be empty")
	}

	seen := make(map[time.Weekday]bool, len(draft.Days))
	for _, day := range draft.Days {
		if day.Weekday < time.Sunday || day.Weekday > time.Saturday {
			return Plan{}, fmt.Errorf("invalid weekday %d", day.Weekday)
		}
		if seen[day.Weekday] {
			return Plan{}, fmt.Errorf("duplicate weekday %s", day.Weekday)
		}
		seen[day.Weekday] = true
	}

	plan, err := s.repo.plans.Create(ctx, draft)
	if err != nil {
		return Plan{}, fmt.Errorf("create plan: %w", err)
	}

	return plan, nil
}

// SetActivePlan switches the active plan.
func (s *Service) SetActivePlan(ctx context.Context, id int) error {
	if err := s.repo.plans.SetActive(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("set active plan %d: %w", id, err)
	}
	return nil
}

// DeletePlan removes a plan with its day/exercise/set tree.
func (s *Service) DeletePlan(ctx context.Context, id int) error {
	if err := s.repo.plans.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete plan %d: %w", id, err)
	}
	return nil
}

// TodayTemplate returns the active plan's day matching the date's weekday.
// The second return value is false on rest days and when no plan is active.
func (s *Service) TodayTemplate(ctx context.Context, date time.Time) (PlanDay, bool, error) {
	plan, err := s.repo.plans.GetActive(ctx)
	if errors.Is(err, ErrNotFound) {
		return PlanDay{}, false, nil
	}
	if err != nil {
		return PlanDay{}, false, fmt.Errorf("get active plan: %w", err)
	}

	for _, day := range plan.Days {
		if day.Weekday == date.Weekday() {
			return day, true, nil
		}
	}

	return PlanDay{}, false, nil
}

// Profile retrieves the authenticated user's profile.
func (s *Service) Profile(ctx context.Context) (Profile, error) {
	profile, err := s.repo.profiles.Get(ctx)
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile saves the user's display name, units, and goals.
func (s *Service) UpdateProfile(ctx context.Context, displayName, units, goals string) error {
	if units != "kg" && units != "lb" {
		return fmt.Errorf("invalid units %q", units)
	}

	if err := s.repo.profiles.Update(ctx, func(p *Profile) (bool, error) {
		p.DisplayName = displayName
		p.Units = units
		p.Goals = goals
		return true, nil
	}); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	return nil
}

// SetWeeklyGoal saves the target number of workouts per week.
func (s *Service) SetWeeklyGoal(ctx context.Context, goal int) error {
	if goal < 1 || goal > 7 {
		return fmt.Errorf("invalid weekly goal %d", goal)
	}

	if err := s.repo.profiles.Update(ctx, func(p *Profile) (bool, error) {
		if p.WeeklyGoal == goal {
			return false, nil
		}
		p.WeeklyGoal = goal
		return true, nil
	}); err != nil {
		return fmt.Errorf("set weekly goal: %w", err)
	}

	return nil
}

// Achievements lists the user's unlocked badges, newest first.
func (s *Service) Achievements(ctx context.Context) ([]Achievement, error) {
	achievements, err := s.repo.achievements.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return achievements, nil
}
