package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventhub/internal/database"
	"eventhub/internal/model"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewPostgresMigrator returns a golang-migrate instance over the embedded
// schema. The caller must Close it.
func NewPostgresMigrator(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// MigratePostgres applies all pending migrations.
func MigratePostgres(databaseURL string) error {
	m, err := NewPostgresMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			slog.Error("Failed to close migration instance", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Database migration completed")
	return nil
}

// PostgresRepository is the PostgreSQL backed Repository.
type PostgresRepository struct {
	db      database.Database
	nowFunc func() time.Time
}

func NewPostgresRepository(db database.Database) *PostgresRepository {
	return &PostgresRepository{db: db, nowFunc: func() time.Time { return time.Now().UTC() }}
}

func (r *PostgresRepository) HealthCheck(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresRepository) Stats(ctx context.Context, since time.Time) (model.AdminStats, error) {
	var stats model.AdminStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM events WHERE is_external),
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM registrations WHERE status = 'registered'),
			(SELECT COUNT(*) FROM reviews),
			(SELECT COUNT(*) FROM registrations WHERE registered_at >= $1)
	`, since).Scan(
		&stats.TotalEvents, &stats.ExternalEvents, &stats.TotalUsers,
		&stats.TotalRegistrations, &stats.TotalReviews, &stats.TodayRegistrations,
	)
	if err != nil {
		return model.AdminStats{}, fmt.Errorf("failed to load stats: %w", err)
	}
	return stats, nil
}

// validUUID reports whether id can be compared against a UUID column.
// Malformed ids can never match a row.
func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func uniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pqErr.Constraint, true
	}
	return "", false
}

func foreignKeyViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return pqErr.Constraint, true
	}
	return "", false
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, full_name, email, password_hash, student_id, department, phone, role, github_id, bookmarks, created_at`

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	var githubID sql.NullString
	var bookmarks pq.StringArray
	if err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.StudentID, &u.Department,
		&u.Phone, &u.Role, &githubID, &bookmarks, &u.CreatedAt,
	); err != nil {
		return model.User{}, err
	}
	u.GitHubID = githubID.String
	u.Bookmarks = []string(bookmarks)
	if u.Bookmarks == nil {
		u.Bookmarks = []string{}
	}
	return u, nil
}

const eventColumns = `id, title, description, category, starts_at, ends_at, venue, location_text,
	latitude, longitude, banner_url, rules, requirements, is_external, external_url, source,
	external_id, external_date, created_by, created_at, updated_at`

func scanEvent(row rowScanner) (model.Event, error) {
	var e model.Event
	var endsAt sql.NullTime
	var externalID, createdBy sql.NullString
	if err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Category, &e.StartsAt, &endsAt, &e.Venue, &e.LocationText,
		&e.Latitude, &e.Longitude, &e.BannerURL, &e.Rules, &e.Requirements, &e.IsExternal, &e.ExternalURL, &e.Source,
		&externalID, &e.ExternalDate, &createdBy, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return model.Event{}, err
	}
	if endsAt.Valid {
		t := endsAt.Time
		e.EndsAt = &t
	}
	e.ExternalID = externalID.String
	e.CreatedBy = createdBy.String
	return e, nil
}

// likePattern escapes LIKE metacharacters so search terms match literally.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// setBuilder accumulates "column = $n" assignments for partial updates.
type setBuilder struct {
	sets []string
	args []any
}

func (b *setBuilder) add(column string, value any) {
	b.args = append(b.args, value)
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", column, len(b.args)))
}

func (b *setBuilder) next() string {
	return fmt.Sprintf("$%d", len(b.args)+1)
}
