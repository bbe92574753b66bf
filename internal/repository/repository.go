package repository

import (
	"context"
	"time"

	"eventhub/internal/model"
)

var (
	ErrUserNotFound         = model.NewNotFoundError("User not found")
	ErrEventNotFound        = model.NewNotFoundError("Event not found")
	ErrRegistrationNotFound = model.NewNotFoundError("Registration not found")
	ErrEmailExists          = model.NewConflictError("Email already exists")
	ErrGitHubAccountExists  = model.NewConflictError("GitHub account already linked")
	ErrAlreadyRegistered    = model.NewConflictError("Already registered for this event")
	ErrAlreadyReviewed      = model.NewConflictError("You have already reviewed this event")
	ErrExternalIDExists     = model.NewConflictError("Event with this external id already exists")
)

// Repository is the persistence contract shared by the mongo and postgres
// backends. Uniqueness of emails, active registrations, reviews and external
// event ids is enforced by the backing store, never by read-then-write.
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID string) (model.User, error)
	UpdateUserProfile(ctx context.Context, id string, update model.ProfileUpdate) (model.User, error)
	UpdateUserRole(ctx context.Context, id string, role model.Role) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// DeleteUser removes the user and every registration that references it.
	DeleteUser(ctx context.Context, id string) error
	// ToggleBookmark adds or removes eventID from the user's bookmark set in
	// a single atomic write and returns the resulting set.
	ToggleBookmark(ctx context.Context, userID, eventID string) (model.BookmarkResult, error)

	// Event operations
	CreateEvent(ctx context.Context, event model.Event) (model.Event, error)
	GetEvent(ctx context.Context, id string) (model.Event, error)
	GetEventsByIDs(ctx context.Context, ids []string) ([]model.Event, error)
	ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, int64, error)
	UpdateEvent(ctx context.Context, id string, update model.EventUpdate) (model.Event, error)
	// DeleteEvent removes the event and every registration that references it.
	DeleteEvent(ctx context.Context, id string) error
	// UpsertExternalEvent inserts or overwrites an event keyed by its external id.
	UpsertExternalEvent(ctx context.Context, event model.Event) (created bool, err error)

	// Registration operations
	CreateRegistration(ctx context.Context, registration model.Registration) (model.Registration, error)
	CancelRegistration(ctx context.Context, userID, eventID string, at time.Time) (model.Registration, error)
	GetActiveRegistration(ctx context.Context, userID, eventID string) (model.Registration, error)
	ListRegistrationsByUser(ctx context.Context, userID string) ([]model.RegistrationDetail, error)
	ListRegistrationsByEvent(ctx context.Context, eventID string) ([]model.RegistrationDetail, error)
	ListRegistrations(ctx context.Context) ([]model.RegistrationDetail, error)

	// Review operations
	CreateReview(ctx context.Context, review model.Review) (model.Review, error)
	ListReviewsByEvent(ctx context.Context, eventID string) ([]model.Review, error)

	// Stats counts registrations made at or after since as today's.
	Stats(ctx context.Context, since time.Time) (model.AdminStats, error)
	HealthCheck(ctx context.Context) error
}

var (
	_ Repository = (*MongoRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
)
