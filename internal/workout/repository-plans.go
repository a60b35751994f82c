package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/liftlog/internal/contexthelpers"
	"github.com/myrjola/liftlog/internal/ptr"
	"github.com/myrjola/liftlog/internal/sqlite"
)

// sqlitePlanRepository implements planRepository.
type sqlitePlanRepository struct {
	baseRepository
}

// newSQLitePlanRepository creates a new SQLite plan repository.
func newSQLitePlanRepository(db *sqlite.Database, logger *slog.Logger) *sqlitePlanRepository {
	return &sqlitePlanRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

// GetActive retrieves the user's active plan with its full tree.
func (r *sqlitePlanRepository) GetActive(ctx context.Context) (Plan, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	var id int
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id FROM plans WHERE user_id = ? AND active = TRUE`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Plan{}, ErrNotFound
	}
	if err != nil {
		return Plan{}, fmt.Errorf("query active plan: %w", err)
	}

	return r.Get(ctx, id)
}

// Get retrieves a plan by ID with its full day/exercise/set tree.
func (r *sqlitePlanRepository) Get(ctx context.Context, id int) (Plan, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	var (
		plan         Plan
		createdAtStr string
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, name, active, created_at
		FROM plans
		WHERE id = ? AND user_id = ?`, id, userID).Scan(
		&plan.ID, &plan.Name, &plan.Active, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return Plan{}, ErrNotFound
	}
	if err != nil {
		return Plan{}, fmt.Errorf("query plan: %w", err)
	}

	if plan.CreatedAt, err = time.Parse(timestampFormat, createdAtStr); err != nil {
		return Plan{}, fmt.Errorf("parse plan created_at: %w", err)
	}

	if plan.Days, err = r.loadDays(ctx, plan.ID); err != nil {
		return Plan{}, fmt.Errorf("load plan days: %w", err)
	}

	return plan, nil
}

// List retrieves all of the user's plans with their trees, newest first.
func (r *sqlitePlanRepository) List(ctx context.Context) (_ []Plan, err error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id FROM plans
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var ids []int
	for rows.Next() {
		var id int
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan plan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	var plans []Plan
	for _, id := range ids {
		var plan Plan
		if plan, err = r.Get(ctx, id); err != nil {
			return nil, fmt.Errorf("get plan %d: %w", id, err)
		}
		plans = append(plans, plan)
	}

	return plans, nil
}

// Create inserts a plan with its full tree and makes it the active plan.
// Any previously active plan is deactivated in the same transaction.
func (r *sqlitePlanRepository) Create(ctx context.Context, draft PlanDraft) (_ Plan, err error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)
	createdAt := time.Now().UTC().Format(timestampFormat)

	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return Plan{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rollbackErr))
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		UPDATE plans SET active = FALSE WHERE user_id = ?`, userID); err != nil {
		return Plan{}, fmt.Errorf("deactivate plans: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO plans (user_id, name, active, created_at)
		VALUES (?, ?, TRUE, ?)`, userID, draft.Name, createdAt)
	if err != nil {
		return Plan{}, fmt.Errorf("insert plan: %w", err)
	}

	planID, err := result.LastInsertId()
	if err != nil {
		return Plan{}, fmt.Errorf("get last insert ID: %w", err)
	}

	for _, day := range draft.Days {
		if err = r.insertDay(ctx, tx, int(planID), day); err != nil {
			return Plan{}, fmt.Errorf("insert plan day %d: %w", day.Weekday, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return Plan{}, fmt.Errorf("commit transaction: %w", err)
	}

	return r.Get(ctx, int(planID))
}

// SetActive activates one plan and deactivates the rest.
func (r *sqlitePlanRepository) SetActive(ctx context.Context, id int) (err error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback transaction: %w", rollbackErr))
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		UPDATE plans SET active = FALSE WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deactivate plans: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE plans SET active = TRUE WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("activate plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// Delete removes a plan. The day/exercise/set tree cascades.
func (r *sqlitePlanRepository) Delete(ctx context.Context, id int) error {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	result, err := r.db.ReadWrite.ExecContext(ctx, `
		DELETE FROM plans WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// insertDay inserts one day of a plan draft with its exercises and sets.
func (r *sqlitePlanRepository) insertDay(ctx context.Context, tx *sql.Tx, planID int, day PlanDay) error {
	result, err := tx.ExecContext(ctx, `
		INSERT INTO plan_days (plan_id, weekday, name)
		VALUES (?, ?, ?)`, planID, int(day.Weekday), day.Name)
	if err != nil {
		return fmt.Errorf("insert day: %w", err)
	}

	dayID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert ID: %w", err)
	}

	for position, planExercise := range day.Exercises {
		var restSeconds sql.NullInt64
		if planExercise.RestSeconds != nil {
			restSeconds = sql.NullInt64{Int64: int64(*planExercise.RestSeconds), Valid: true}
		}

		var exerciseResult sql.Result
		exerciseResult, err = tx.ExecContext(ctx, `
			INSERT INTO plan_exercises (plan_day_id, exercise_id, position, rest_seconds)
			VALUES (?, ?, ?, ?)`,
			dayID, planExercise.ExerciseID, position, restSeconds)
		if err != nil {
			return fmt.Errorf("insert plan exercise: %w", err)
		}

		var planExerciseID int64
		if planExerciseID, err = exerciseResult.LastInsertId(); err != nil {
			return fmt.Errorf("get last insert ID: %w", err)
		}

		for setIndex, set := range planExercise.Sets {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO plan_sets (plan_exercise_id, set_index, reps_target, notes)
				VALUES (?, ?, ?, ?)`,
				planExerciseID, setIndex, set.RepsTarget, set.Notes); err != nil {
				return fmt.Errorf("insert plan set: %w", err)
			}
		}
	}

	return nil
}

// loadDays fetches a plan's days with their exercises and set targets.
func (r *sqlitePlanRepository) loadDays(ctx context.Context, planID int) (_ []PlanDay, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, weekday, name
		FROM plan_days
		WHERE plan_id = ?
		ORDER BY weekday`, planID)
	if err != nil {
		return nil, fmt.Errorf("query plan days: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var days []PlanDay
	for rows.Next() {
		var (
			day     PlanDay
			weekday int
		)
		if err = rows.Scan(&day.ID, &weekday, &day.Name); err != nil {
			return nil, fmt.Errorf("scan plan day: %w", err)
		}
		day.Weekday = time.Weekday(weekday)
		days = append(days, day)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range days {
		if days[i].Exercises, err = r.loadDayExercises(ctx, days[i].ID); err != nil {
			return nil, fmt.Errorf("load exercises for day %d: %w", days[i].ID, err)
		}
	}

	return days, nil
}

// loadDayExercises fetches the exercise slots of one plan day.
func (r *sqlitePlanRepository) loadDayExercises(ctx context.Context, dayID int) (_ []PlanExercise, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT pe.id, pe.exercise_id, pe.position, pe.rest_seconds,
		       ps.set_index, ps.reps_target, ps.notes
		FROM plan_exercises pe
		LEFT JOIN plan_sets ps ON ps.plan_exercise_id = pe.id
		WHERE pe.plan_day_id = ?
		ORDER BY pe.position, ps.set_index`, dayID)
	if err != nil {
		return nil, fmt.Errorf("query plan exercises: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var exercises []PlanExercise
	var current *PlanExercise
	for rows.Next() {
		var (
			planExercise PlanExercise
			restSeconds  sql.NullInt64
			setIndex     sql.NullInt64
			repsTarget   sql.NullInt64
			notes        sql.NullString
		)
		err = rows.Scan(
			&planExercise.ID, &planExercise.ExerciseID, &planExercise.Position, &restSeconds,
			&setIndex, &repsTarget, &notes)
		if err != nil {
			return nil, fmt.Errorf("scan plan exercise: %w", err)
		}

		if current == nil || current.ID != planExercise.ID {
			if current != nil {
				exercises = append(exercises, *current)
			}
			if restSeconds.Valid {
				planExercise.RestSeconds = ptr.Ref(int(restSeconds.Int64))
			}
			planExercise.Sets = []PlanSet{}
			current = &planExercise
		}

		if setIndex.Valid {
			current.Sets = append(current.Sets, PlanSet{
				RepsTarget: int(repsTarget.Int64),
				Notes:      notes.String,
			})
		}
	}
	if current != nil {
		exercises = append(exercises, *current)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return exercises, nil
}
