package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventhub/internal/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

func (r *PostgresRepository) CreateEvent(ctx context.Context, event model.Event) (model.Event, error) {
	now := r.nowFunc()
	source := event.Source
	if source == "" {
		source = model.SourceLocal
	}
	createdBy := sql.NullString{}
	if validUUID(event.CreatedBy) {
		createdBy = sql.NullString{String: event.CreatedBy, Valid: true}
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO events (id, title, description, category, starts_at, ends_at, venue, location_text,
			latitude, longitude, banner_url, rules, requirements, is_external, external_url, source,
			external_id, external_date, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $20)
		RETURNING `+eventColumns,
		uuid.NewString(), event.Title, event.Description, string(event.Category), event.StartsAt, event.EndsAt,
		event.Venue, event.LocationText, event.Latitude, event.Longitude, event.BannerURL, event.Rules,
		event.Requirements, event.IsExternal, event.ExternalURL, source, nullString(event.ExternalID),
		event.ExternalDate, createdBy, now,
	)
	created, err := scanEvent(row)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return model.Event{}, ErrExternalIDExists
		}
		return model.Event{}, fmt.Errorf("failed to insert event: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetEvent(ctx context.Context, id string) (model.Event, error) {
	if !validUUID(id) {
		return model.Event{}, ErrEventNotFound
	}

	event, err := scanEvent(r.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrEventNotFound
		}
		return model.Event{}, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

func (r *PostgresRepository) GetEventsByIDs(ctx context.Context, ids []string) ([]model.Event, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validUUID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []model.Event{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id = ANY($1::uuid[]) ORDER BY starts_at ASC",
		pq.Array(valid),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	return collectEvents(rows)
}

func (r *PostgresRepository) ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error) {
	filter = filter.Normalize()

	var where []string
	var args []any
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, likePattern(filter.Search))
		n := len(args)
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR location_text ILIKE $%d)", n, n, n))
	}
	if filter.Upcoming {
		args = append(args, r.nowFunc())
		where = append(where, fmt.Sprintf("starts_at >= $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events"+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset())
	query := fmt.Sprintf("SELECT %s FROM events%s ORDER BY starts_at ASC, id ASC LIMIT $%d OFFSET $%d",
		eventColumns, clause, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *PostgresRepository) UpdateEvent(ctx context.Context, id string, update model.EventUpdate) (model.Event, error) {
	if !validUUID(id) {
		return model.Event{}, ErrEventNotFound
	}

	b := &setBuilder{}
	if update.Title.IsSet {
		b.add("title", update.Title.Val)
	}
	if update.Description.IsSet {
		b.add("description", update.Description.Val)
	}
	if update.Category.IsSet {
		b.add("category", string(update.Category.Val))
	}
	if update.StartsAt.IsSet {
		b.add("starts_at", update.StartsAt.Val)
	}
	if update.EndsAt.IsSet {
		b.add("ends_at", update.EndsAt.Val)
	}
	if update.Venue.IsSet {
		b.add("venue", update.Venue.Val)
	}
	if update.LocationText.IsSet {
		b.add("location_text", update.LocationText.Val)
	}
	if update.Latitude.IsSet {
		b.add("latitude", update.Latitude.Val)
	}
	if update.Longitude.IsSet {
		b.add("longitude", update.Longitude.Val)
	}
	if update.BannerURL.IsSet {
		b.add("banner_url", update.BannerURL.Val)
	}
	if update.Rules.IsSet {
		b.add("rules", update.Rules.Val)
	}
	if update.Requirements.IsSet {
		b.add("requirements", update.Requirements.Val)
	}
	if update.ExternalURL.IsSet {
		b.add("external_url", update.ExternalURL.Val)
	}
	b.add("updated_at", r.nowFunc())

	query := fmt.Sprintf("UPDATE events SET %s WHERE id = %s RETURNING %s", strings.Join(b.sets, ", "), b.next(), eventColumns)
	event, err := scanEvent(r.db.QueryRowContext(ctx, query, append(b.args, id)...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Event{}, ErrEventNotFound
		}
		return model.Event{}, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

// DeleteEvent deletes an event and any bookmarks of it. Registrations go
// with it through the foreign key.
func (r *PostgresRepository) DeleteEvent(ctx context.Context, id string) error {
	if !validUUID(id) {
		return ErrEventNotFound
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrEventNotFound
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET bookmarks = array_remove(bookmarks, $1::text) WHERE $1::text = ANY(bookmarks)", id,
		); err != nil {
			return fmt.Errorf("failed to remove event bookmarks: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepository) UpsertExternalEvent(ctx context.Context, event model.Event) (bool, error) {
	if event.ExternalID == "" {
		return false, model.NewValidationError("external id is required")
	}

	now := r.nowFunc()
	var inserted bool
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO events (id, title, description, category, starts_at, venue, location_text, latitude, longitude,
			banner_url, rules, requirements, is_external, external_url, source, external_id, external_date,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, TRUE, $13, $14, $15, $16, $17, $17)
		ON CONFLICT (external_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			starts_at = EXCLUDED.starts_at,
			venue = EXCLUDED.venue,
			location_text = EXCLUDED.location_text,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			banner_url = EXCLUDED.banner_url,
			is_external = TRUE,
			external_url = EXCLUDED.external_url,
			source = EXCLUDED.source,
			external_date = EXCLUDED.external_date,
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0)
	`,
		uuid.NewString(), event.Title, event.Description, string(event.Category), event.StartsAt, event.Venue,
		event.LocationText, event.Latitude, event.Longitude, event.BannerURL, event.Rules, event.Requirements,
		event.ExternalURL, event.Source, event.ExternalID, event.ExternalDate, now,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert event %s: %w", event.ExternalID, err)
	}
	return inserted, nil
}

func collectEvents(rows *sql.Rows) ([]model.Event, error) {
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}
