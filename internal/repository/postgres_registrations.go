package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventhub/internal/model"

	"github.com/google/uuid"
)

const registrationColumns = `id, user_id, event_id, status, registered_at, cancelled_at`

func scanRegistration(row rowScanner) (model.Registration, error) {
	var reg model.Registration
	var cancelledAt sql.NullTime
	if err := row.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.Status, &reg.RegisteredAt, &cancelledAt); err != nil {
		return model.Registration{}, err
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		reg.CancelledAt = &t
	}
	return reg, nil
}

func (r *PostgresRepository) CreateRegistration(ctx context.Context, registration model.Registration) (model.Registration, error) {
	if !validUUID(registration.UserID) {
		return model.Registration{}, ErrUserNotFound
	}
	if !validUUID(registration.EventID) {
		return model.Registration{}, ErrEventNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO registrations (id, user_id, event_id, status, registered_at)
		VALUES ($1, $2, $3, 'registered', $4)
		RETURNING `+registrationColumns,
		uuid.NewString(), registration.UserID, registration.EventID, r.nowFunc(),
	)
	created, err := scanRegistration(row)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return model.Registration{}, ErrAlreadyRegistered
		}
		if constraint, ok := foreignKeyViolation(err); ok {
			if constraint == "registrations_user_id_fkey" {
				return model.Registration{}, ErrUserNotFound
			}
			return model.Registration{}, ErrEventNotFound
		}
		return model.Registration{}, fmt.Errorf("failed to insert registration: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) CancelRegistration(ctx context.Context, userID, eventID string, at time.Time) (model.Registration, error) {
	if !validUUID(userID) || !validUUID(eventID) {
		return model.Registration{}, ErrRegistrationNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE registrations SET status = 'cancelled', cancelled_at = $3
		WHERE user_id = $1 AND event_id = $2 AND status = 'registered'
		RETURNING `+registrationColumns,
		userID, eventID, at,
	)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Registration{}, ErrRegistrationNotFound
		}
		return model.Registration{}, fmt.Errorf("failed to cancel registration: %w", err)
	}
	return reg, nil
}

func (r *PostgresRepository) GetActiveRegistration(ctx context.Context, userID, eventID string) (model.Registration, error) {
	if !validUUID(userID) || !validUUID(eventID) {
		return model.Registration{}, ErrRegistrationNotFound
	}

	row := r.db.QueryRowContext(ctx,
		"SELECT "+registrationColumns+" FROM registrations WHERE user_id = $1 AND event_id = $2 AND status = 'registered'",
		userID, eventID,
	)
	reg, err := scanRegistration(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Registration{}, ErrRegistrationNotFound
		}
		return model.Registration{}, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

// registrationDetailQuery left joins both sides so registrations whose user
// or event was removed are still returned.
const registrationDetailQuery = `
	SELECT r.id, r.user_id, r.event_id, r.status, r.registered_at, r.cancelled_at,
		u.id, u.full_name, u.email, u.student_id, u.department, u.phone,
		e.id, e.title, e.category, e.starts_at, e.venue, e.location_text, e.banner_url, e.is_external
	FROM registrations r
	LEFT JOIN users u ON u.id = r.user_id
	LEFT JOIN events e ON e.id = r.event_id`

func (r *PostgresRepository) queryRegistrationDetails(ctx context.Context, where string, args ...any) ([]model.RegistrationDetail, error) {
	rows, err := r.db.QueryContext(ctx, registrationDetailQuery+where+" ORDER BY r.registered_at DESC, r.id DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	details := []model.RegistrationDetail{}
	for rows.Next() {
		var d model.RegistrationDetail
		var cancelledAt sql.NullTime
		var userID, fullName, email, studentID, department, phone sql.NullString
		var eventID, title, category, venue, locationText, bannerURL sql.NullString
		var startsAt sql.NullTime
		var isExternal sql.NullBool

		if err := rows.Scan(
			&d.ID, &d.UserID, &d.EventID, &d.Status, &d.RegisteredAt, &cancelledAt,
			&userID, &fullName, &email, &studentID, &department, &phone,
			&eventID, &title, &category, &startsAt, &venue, &locationText, &bannerURL, &isExternal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}

		if cancelledAt.Valid {
			t := cancelledAt.Time
			d.CancelledAt = &t
		}
		if userID.Valid {
			d.User = &model.UserContact{
				ID:         userID.String,
				FullName:   fullName.String,
				Email:      email.String,
				StudentID:  studentID.String,
				Department: department.String,
				Phone:      phone.String,
			}
		}
		if eventID.Valid {
			d.Event = &model.EventBrief{
				ID:           eventID.String,
				Title:        title.String,
				Category:     model.Category(category.String),
				StartsAt:     startsAt.Time,
				Venue:        venue.String,
				LocationText: locationText.String,
				BannerURL:    bannerURL.String,
				IsExternal:   isExternal.Bool,
			}
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate registrations: %w", err)
	}
	return details, nil
}

func (r *PostgresRepository) ListRegistrationsByUser(ctx context.Context, userID string) ([]model.RegistrationDetail, error) {
	if !validUUID(userID) {
		return []model.RegistrationDetail{}, nil
	}
	return r.queryRegistrationDetails(ctx, " WHERE r.user_id = $1", userID)
}

func (r *PostgresRepository) ListRegistrationsByEvent(ctx context.Context, eventID string) ([]model.RegistrationDetail, error) {
	if !validUUID(eventID) {
		return []model.RegistrationDetail{}, nil
	}
	return r.queryRegistrationDetails(ctx, " WHERE r.event_id = $1", eventID)
}

func (r *PostgresRepository) ListRegistrations(ctx context.Context) ([]model.RegistrationDetail, error) {
	return r.queryRegistrationDetails(ctx, "")
}

func (r *PostgresRepository) CreateReview(ctx context.Context, review model.Review) (model.Review, error) {
	if !validUUID(review.UserID) {
		return model.Review{}, ErrUserNotFound
	}
	if !validUUID(review.EventID) {
		return model.Review{}, ErrEventNotFound
	}

	created := review
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reviews (id, user_id, event_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, uuid.NewString(), review.UserID, review.EventID, review.Rating, review.Comment, r.nowFunc()).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return model.Review{}, ErrAlreadyReviewed
		}
		return model.Review{}, fmt.Errorf("failed to insert review: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) ListReviewsByEvent(ctx context.Context, eventID string) ([]model.Review, error) {
	if !validUUID(eventID) {
		return []model.Review{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT rv.id, rv.user_id, rv.event_id, rv.rating, rv.comment, rv.created_at, COALESCE(u.full_name, '')
		FROM reviews rv
		LEFT JOIN users u ON u.id = rv.user_id
		WHERE rv.event_id = $1
		ORDER BY rv.created_at DESC, rv.id DESC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.EventID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.AuthorName); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return reviews, nil
}
