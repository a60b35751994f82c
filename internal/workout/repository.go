package workout

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/liftlog/internal/sqlite"
)

const dateFormat = time.DateOnly
const timestampFormat = "2006-01-02T15:04:05.000Z"

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// baseRepository carries the shared database handles.
type baseRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

// newBaseRepository creates a base repository.
func newBaseRepository(db *sqlite.Database, logger *slog.Logger) baseRepository {
	return baseRepository{
		db:     db,
		logger: logger,
	}
}

// repository bundles the per-entity repositories behind the service.
type repository struct {
	profiles     *sqliteProfileRepository
	exercises    *sqliteExerciseRepository
	plans        *sqlitePlanRepository
	sessions     *sqliteSessionRepository
	achievements *sqliteAchievementRepository
}

// repositoryFactory constructs the repository aggregate.
type repositoryFactory struct {
	db     *sqlite.Database
	logger *slog.Logger
}

// newRepositoryFactory creates a new factory for SQLite-backed repositories.
func newRepositoryFactory(db *sqlite.Database, logger *slog.Logger) repositoryFactory {
	return repositoryFactory{
		db:     db,
		logger: logger,
	}
}

// newRepository wires up the per-entity repositories.
func (f repositoryFactory) newRepository() *repository {
	return &repository{
		profiles:     newSQLiteProfileRepository(f.db, f.logger),
		exercises:    newSQLiteExerciseRepository(f.db, f.logger),
		plans:        newSQLitePlanRepository(f.db, f.logger),
		sessions:     newSQLiteSessionRepository(f.db, f.logger),
		achievements: newSQLiteAchievementRepository(f.db, f.logger),
	}
}

// formatDate renders a date the way it is stored in the database.
func formatDate(date time.Time) string {
	return date.Format(dateFormat)
}

// parseDate parses a stored date string.
func parseDate(dateStr string) (time.Time, error) {
	date, err := time.Parse(dateFormat, dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date: %w", err)
	}
	return date, nil
}

// formatTimestamp renders an optional timestamp for storage.
func formatTimestamp(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{String: "", Valid: false}
	}
	return sql.NullString{String: t.UTC().Format(timestampFormat), Valid: true}
}

// parseTimestamp parses a timestamp from a nullable database string.
func parseTimestamp(timestampStr sql.NullString) (*time.Time, error) {
	if !timestampStr.Valid {
		return nil, nil //nolint:nilnil // nil time.Time is expected when the string is NULL.
	}
	parsedTime, err := time.Parse(timestampFormat, timestampStr.String)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp format: %w", err)
	}
	return &parsedTime, nil
}
