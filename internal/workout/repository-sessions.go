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

// sqliteSessionRepository implements sessionRepository.
type sqliteSessionRepository struct {
	baseRepository
}

// newSQLiteSessionRepository creates a new SQLite session repository.
func newSQLiteSessionRepository(db *sqlite.Database, logger *slog.Logger) *sqliteSessionRepository {
	return &sqliteSessionRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

// Get retrieves the session for a specific date with its logged sets.
func (r *sqliteSessionRepository) Get(ctx context.Context, date time.Time) (Session, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	var (
		session        Session
		sessionDateStr string
		planID         sql.NullInt64
		weekday        sql.NullInt64
		completedAtStr sql.NullString
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, session_date, plan_id, weekday, completed_at, notes
		FROM workout_sessions
		WHERE user_id = ? AND session_date = ?`,
		userID, formatDate(date)).Scan(
		&session.ID, &sessionDateStr, &planID, &weekday, &completedAtStr, &session.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("query session: %w", err)
	}

	if session, err = r.parseSessionRow(session, sessionDateStr, planID, weekday, completedAtStr); err != nil {
		return Session{}, err
	}

	if session.Sets, err = r.loadSets(ctx, session.ID); err != nil {
		return Session{}, fmt.Errorf("load sets: %w", err)
	}

	return session, nil
}

// Create inserts a session for the date with the given plan snapshot.
func (r *sqliteSessionRepository) Create(
	ctx context.Context,
	date time.Time,
	planID *int,
	weekday *time.Weekday,
) (Session, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	var planIDValue sql.NullInt64
	if planID != nil {
		planIDValue = sql.NullInt64{Int64: int64(*planID), Valid: true}
	}
	var weekdayValue sql.NullInt64
	if weekday != nil {
		weekdayValue = sql.NullInt64{Int64: int64(*weekday), Valid: true}
	}

	_, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO workout_sessions (user_id, session_date, plan_id, weekday)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, session_date) DO NOTHING`,
		userID, formatDate(date), planIDValue, weekdayValue)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}

	return r.Get(ctx, date)
}

// UpsertSet records one set, replacing an earlier entry for the same
// (session, exercise, set index) slot.
func (r *sqliteSessionRepository) UpsertSet(ctx context.Context, sessionID int, entry SetEntry) error {
	var rpe sql.NullInt64
	if entry.RPE != nil {
		rpe = sql.NullInt64{Int64: int64(*entry.RPE), Valid: true}
	}

	_, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO session_sets (session_id, exercise_id, set_index, reps, weight_kg, rpe)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, exercise_id, set_index) DO UPDATE SET
			reps = excluded.reps,
			weight_kg = excluded.weight_kg,
			rpe = excluded.rpe`,
		sessionID, entry.ExerciseID, entry.SetIndex, entry.Reps, entry.WeightKg, rpe)
	if err != nil {
		return fmt.Errorf("upsert session set: %w", err)
	}

	return nil
}

// Complete marks the session done exactly once. It reports false when the
// session was already completed, which callers treat as a no-op.
func (r *sqliteSessionRepository) Complete(ctx context.Context, date time.Time, completedAt time.Time) (bool, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	result, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE workout_sessions
		SET completed_at = ?
		WHERE user_id = ? AND session_date = ? AND completed_at IS NULL`,
		completedAt.UTC().Format(timestampFormat), userID, formatDate(date))
	if err != nil {
		return false, fmt.Errorf("complete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rows > 0, nil
}

// UpdateNotes replaces the session's notes.
func (r *sqliteSessionRepository) UpdateNotes(ctx context.Context, date time.Time, notes string) error {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	result, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE workout_sessions
		SET notes = ?
		WHERE user_id = ? AND session_date = ?`,
		notes, userID, formatDate(date))
	if err != nil {
		return fmt.Errorf("update session notes: %w", err)
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

// List retrieves the user's sessions newest first with their sets, whether
// or not they have been completed. A zero since means no lower bound;
// limit <= 0 means no limit.
func (r *sqliteSessionRepository) List(ctx context.Context, since time.Time, limit int) ([]Session, error) {
	return r.list(ctx, since, limit, false)
}

// ListCompleted retrieves completed sessions newest first, with their sets.
// A zero since means no lower bound; limit <= 0 means no limit.
func (r *sqliteSessionRepository) ListCompleted(ctx context.Context, since time.Time, limit int) ([]Session, error) {
	return r.list(ctx, since, limit, true)
}

func (r *sqliteSessionRepository) list(
	ctx context.Context,
	since time.Time,
	limit int,
	completedOnly bool,
) (_ []Session, err error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	sinceStr := ""
	if !since.IsZero() {
		sinceStr = formatDate(since)
	}
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded.
	}

	query := `
		SELECT id, session_date, plan_id, weekday, completed_at, notes
		FROM workout_sessions
		WHERE user_id = ? AND session_date >= ?`
	if completedOnly {
		query += ` AND completed_at IS NOT NULL`
	}
	query += `
		ORDER BY session_date DESC
		LIMIT ?`

	rows, err := r.db.ReadOnly.QueryContext(ctx, query, userID, sinceStr, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var sessions []Session
	for rows.Next() {
		var (
			session        Session
			sessionDateStr string
			planID         sql.NullInt64
			weekday        sql.NullInt64
			completedAtStr sql.NullString
		)
		err = rows.Scan(&session.ID, &sessionDateStr, &planID, &weekday, &completedAtStr, &session.Notes)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		if session, err = r.parseSessionRow(session, sessionDateStr, planID, weekday, completedAtStr); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range sessions {
		if sessions[i].Sets, err = r.loadSets(ctx, sessions[i].ID); err != nil {
			return nil, fmt.Errorf("load sets for session %d: %w", sessions[i].ID, err)
		}
	}

	return sessions, nil
}

// CompletedDates returns the dates with a completed session since the given
// date, keyed by formatted date for the streak walk.
func (r *sqliteSessionRepository) CompletedDates(ctx context.Context, since time.Time) (_ map[string]bool, err error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT session_date
		FROM workout_sessions
		WHERE user_id = ? AND completed_at IS NOT NULL AND session_date >= ?`,
		userID, formatDate(since))
	if err != nil {
		return nil, fmt.Errorf("query completed dates: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	completed := make(map[string]bool)
	for rows.Next() {
		var dateStr string
		if err = rows.Scan(&dateStr); err != nil {
			return nil, fmt.Errorf("scan completed date: %w", err)
		}
		completed[dateStr] = true
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return completed, nil
}

// CountCompletedSince counts completed sessions dated on or after the given date.
func (r *sqliteSessionRepository) CountCompletedSince(ctx context.Context, since time.Time) (int, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	var count int
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM workout_sessions
		WHERE user_id = ? AND completed_at IS NOT NULL AND session_date >= ?`,
		userID, formatDate(since)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed sessions: %w", err)
	}

	return count, nil
}

// LastWeights returns the most recently logged weight for each exercise.
// Exercises never logged are absent from the result.
func (r *sqliteSessionRepository) LastWeights(ctx context.Context, exerciseIDs []int) (map[int]float64, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	weights := make(map[int]float64, len(exerciseIDs))
	for _, exerciseID := range exerciseIDs {
		var weight float64
		err := r.db.ReadOnly.QueryRowContext(ctx, `
			SELECT ss.weight_kg
			FROM session_sets ss
			JOIN workout_sessions ws ON ws.id = ss.session_id
			WHERE ws.user_id = ? AND ss.exercise_id = ?
			ORDER BY ws.session_date DESC, ss.set_index DESC
			LIMIT 1`, userID, exerciseID).Scan(&weight)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("query last weight for exercise %d: %w", exerciseID, err)
		}
		weights[exerciseID] = weight
	}

	return weights, nil
}

// BestWeight returns the heaviest weight ever logged for an exercise,
// or zero when it has never been logged.
func (r *sqliteSessionRepository) BestWeight(ctx context.Context, exerciseID int) (float64, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	var weight float64
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(ss.weight_kg), 0)
		FROM session_sets ss
		JOIN workout_sessions ws ON ws.id = ss.session_id
		WHERE ws.user_id = ? AND ss.exercise_id = ?`,
		userID, exerciseID).Scan(&weight)
	if err != nil {
		return 0, fmt.Errorf("query best weight: %w", err)
	}

	return weight, nil
}

// parseSessionRow converts database values to a Session.
func (r *sqliteSessionRepository) parseSessionRow(
	session Session,
	sessionDateStr string,
	planID sql.NullInt64,
	weekday sql.NullInt64,
	completedAtStr sql.NullString,
) (Session, error) {
	var err error
	if session.Date, err = parseDate(sessionDateStr); err != nil {
		return Session{}, fmt.Errorf("parse session date: %w", err)
	}

	if planID.Valid {
		id := int(planID.Int64)
		session.PlanID = &id
	}
	if weekday.Valid {
		day := time.Weekday(weekday.Int64)
		session.Weekday = &day
	}

	if session.CompletedAt, err = parseTimestamp(completedAtStr); err != nil {
		return Session{}, fmt.Errorf("parse completed_at: %w", err)
	}

	return session, nil
}

// loadSets fetches the logged sets of a session ordered by exercise and slot.
func (r *sqliteSessionRepository) loadSets(ctx context.Context, sessionID int) (_ []SetEntry, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT exercise_id, set_index, reps, weight_kg, rpe
		FROM session_sets
		WHERE session_id = ?
		ORDER BY exercise_id, set_index`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session sets: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var sets []SetEntry
	for rows.Next() {
		var (
			entry SetEntry
			rpe   sql.NullInt64
		)
		if err = rows.Scan(&entry.ExerciseID, &entry.SetIndex, &entry.Reps, &entry.WeightKg, &rpe); err != nil {
			return nil, fmt.Errorf("scan session set: %w", err)
		}
		if rpe.Valid {
			value := int(rpe.Int64)
			entry.RPE = &value
		}
		sets = append(sets, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return sets, nil
}
