package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/liftlog/internal/contexthelpers"
	"github.com/myrjola/liftlog/internal/sqlite"
)

// sqliteAchievementRepository implements achievementRepository.
type sqliteAchievementRepository struct {
	baseRepository
}

// newSQLiteAchievementRepository creates a new SQLite achievement repository.
func newSQLiteAchievementRepository(db *sqlite.Database, logger *slog.Logger) *sqliteAchievementRepository {
	return &sqliteAchievementRepository{
		baseRepository: newBaseRepository(db, logger),
	}
}

// List retrieves the user's unlocked achievements, newest first.
func (r *sqliteAchievementRepository) List(ctx context.Context) (_ []Achievement, err error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, type, unlocked_at
		FROM achievements
		WHERE user_id = ?
		ORDER BY unlocked_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query achievements: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var achievements []Achievement
	for rows.Next() {
		var (
			achievement   Achievement
			unlockedAtStr string
		)
		if err = rows.Scan(&achievement.ID, &achievement.Type, &unlockedAtStr); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		if achievement.UnlockedAt, err = time.Parse(timestampFormat, unlockedAtStr); err != nil {
			return nil, fmt.Errorf("parse unlocked_at: %w", err)
		}
		achievement.Label = achievementLabels[achievement.Type]
		achievements = append(achievements, achievement)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return achievements, nil
}

// Unlock records an achievement once. It reports false when the badge was
// already unlocked.
func (r *sqliteAchievementRepository) Unlock(ctx context.Context, badgeType string, unlockedAt time.Time) (bool, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)

	result, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO achievements (user_id, type, unlocked_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, type) DO NOTHING`,
		userID, badgeType, unlockedAt.UTC().Format(timestampFormat))
	if err != nil {
		return false, fmt.Errorf("insert achievement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rows > 0, nil
}
