package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/liftlog/internal/contexthelpers"
	"github.com/myrjola/liftlog/internal/sqlite"
)

// sqliteProfileRepository implements profileRepository.
type sqliteProfileRepository struct {
	baseRepository
}

// newSQLiteProfileRepository creates a new SQLite profile repository.
func newSQLiteProfileRepository(db *sqlite.Database, logger *slog.Logger) *sqliteProfileRepository {
	return &sqliteProfileRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

// FindOrCreate looks up a user by email, creating the row on first sign-in.
// It runs before the request is authenticated, so it does not read the user
// id from the context.
func (r *sqliteProfileRepository) FindOrCreate(ctx context.Context, email string) (int, error) {
	var id int
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id FROM users WHERE email = ?`, email).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("query user by email: %w", err)
	}

	result, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO users (email) VALUES (?)
		ON CONFLICT (email) DO UPDATE SET email = excluded.email`, email)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert ID: %w", err)
	}

	return int(lastID), nil
}

// Get retrieves the profile for the authenticated user.
func (r *sqliteProfileRepository) Get(ctx context.Context) (Profile, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	var (
		profile         Profile
		displayName     sql.NullString
		lastWorkoutDate sql.NullString
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, email, display_name, units, goals, weekly_goal,
		       current_streak, longest_streak, last_workout_date
		FROM users
		WHERE id = ?`, userID).Scan(
		&profile.UserID,
		&profile.Email,
		&displayName,
		&profile.Units,
		&profile.Goals,
		&profile.WeeklyGoal,
		&profile.CurrentStreak,
		&profile.LongestStreak,
		&lastWorkoutDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("query profile: %w", err)
	}

	profile.DisplayName = displayName.String

	if lastWorkoutDate.Valid {
		var date time.Time
		if date, err = parseDate(lastWorkoutDate.String); err != nil {
			return Profile{}, fmt.Errorf("parse last workout date: %w", err)
		}
		profile.LastWorkoutDate = date
	}

	return profile, nil
}

// Update modifies the authenticated user's profile.
func (r *sqliteProfileRepository) Update(ctx context.Context, updateFn func(p *Profile) (bool, error)) error {
	profile, err := r.Get(ctx)
	if err != nil {
		return fmt.Errorf("get profile for update: %w", err)
	}

	updated, err := updateFn(&profile)
	if err != nil {
		return fmt.Errorf("update function: %w", err)
	}

	// Skip if no changes were made
	if !updated {
		return nil
	}

	lastWorkoutDate := sql.NullString{String: "", Valid: false}
	if !profile.LastWorkoutDate.IsZero() {
		lastWorkoutDate = sql.NullString{String: formatDate(profile.LastWorkoutDate), Valid: true}
	}

	_, err = r.db.ReadWrite.ExecContext(ctx, `
		UPDATE users
		SET display_name = ?,
		    units = ?,
		    goals = ?,
		    weekly_goal = ?,
		    current_streak = ?,
		    longest_streak = ?,
		    last_workout_date = ?
		WHERE id = ?`,
		profile.DisplayName,
		profile.Units,
		profile.Goals,
		profile.WeeklyGoal,
		profile.CurrentStreak,
		profile.LongestStreak,
		lastWorkoutDate,
		profile.UserID,
	)
	if err != nil {
		return fmt.Errorf("save updated profile: %w", err)
	}

	return nil
}
