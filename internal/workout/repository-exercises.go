package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/myrjola/liftlog/internal/contexthelpers"
	"github.com/myrjola/liftlog/internal/sqlite"
)

// sqliteExerciseRepository implements exerciseRepository.
type sqliteExerciseRepository struct {
	baseRepository
}

// newSQLiteExerciseRepository creates a new SQLite exercise repository.
func newSQLiteExerciseRepository(db *sqlite.Database, logger *slog.Logger) *sqliteExerciseRepository {
	return &sqliteExerciseRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

// Get retrieves a single exercise by ID. Custom exercises are only visible
// to their owner.
func (r *sqliteExerciseRepository) Get(ctx context.Context, id int) (Exercise, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	var (
		exercise Exercise
		ownerID  sql.NullInt64
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, name, muscle_group, equipment, user_id
		FROM exercises
		WHERE id = ? AND (user_id IS NULL OR user_id = ?)`, id, userID).Scan(
		&exercise.ID,
		&exercise.Name,
		&exercise.MuscleGroup,
		&exercise.Equipment,
		&ownerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Exercise{}, ErrNotFound
	}
	if err != nil {
		return Exercise{}, fmt.Errorf("query exercise: %w", err)
	}

	if ownerID.Valid {
		owner := int(ownerID.Int64)
		exercise.UserID = &owner
	}

	return exercise, nil
}

// List returns the global catalog plus the user's custom exercises,
// ordered by muscle group and name.
func (r *sqliteExerciseRepository) List(ctx context.Context) (_ []Exercise, err error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, name, muscle_group, equipment, user_id
		FROM exercises
		WHERE user_id IS NULL OR user_id = ?
		ORDER BY muscle_group, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var exercises []Exercise
	for rows.Next() {
		var (
			exercise Exercise
			ownerID  sql.NullInt64
		)
		if err = rows.Scan(&exercise.ID, &exercise.Name, &exercise.MuscleGroup, &exercise.Equipment, &ownerID); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		if ownerID.Valid {
			owner := int(ownerID.Int64)
			exercise.UserID = &owner
		}
		exercises = append(exercises, exercise)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return exercises, nil
}

// Create adds a custom exercise owned by the authenticated user.
func (r *sqliteExerciseRepository) Create(ctx context.Context, ex Exercise) (Exercise, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	result, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO exercises (name, muscle_group, equipment, user_id)
		VALUES (?, ?, ?, ?)`,
		ex.Name, ex.MuscleGroup, ex.Equipment, userID)
	if err != nil {
		return Exercise{}, fmt.Errorf("insert exercise: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Exercise{}, fmt.Errorf("get last insert ID: %w", err)
	}

	ex.ID = int(id)
	ex.UserID = &userID
	return ex, nil
}

// ListMuscleGroups retrieves the distinct muscle groups in the catalog.
func (r *sqliteExerciseRepository) ListMuscleGroups(ctx context.Context) (_ []string, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT DISTINCT muscle_group
		FROM exercises
		WHERE muscle_group != ''
		ORDER BY muscle_group`)
	if err != nil {
		return nil, fmt.Errorf("query muscle groups: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var muscleGroups []string
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan muscle group: %w", err)
		}
		muscleGroups = append(muscleGroups, name)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return muscleGroups, nil
}
