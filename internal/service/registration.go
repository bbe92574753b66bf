package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"eventhub/internal/model"
	"eventhub/internal/monitoring"
	"eventhub/internal/repository"
)

// RegistrationStatus reports whether a user holds an active registration for an event.
type RegistrationStatus struct {
	Registered   bool                `json:"registered"`
	Registration *model.Registration `json:"registration,omitempty"`
}

type RegistrationService struct {
	repo      repository.Repository
	telemetry monitoring.Telemetry
	nowFunc   func() time.Time
}

func NewRegistrationService(repo repository.Repository, telemetry monitoring.Telemetry) *RegistrationService {
	return &RegistrationService{
		repo:      repo,
		telemetry: telemetry,
		nowFunc:   func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an active registration of userID for eventID. A second
// active registration is rejected by the store's unique index. The user is
// looked up first since a token outlives a deleted account.
func (s *RegistrationService) Register(ctx context.Context, userID, eventID string) (model.Registration, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		s.telemetry.RecordRegistration(ctx, "user_not_found")
		return model.Registration{}, err
	}
	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		s.telemetry.RecordRegistration(ctx, "event_not_found")
		return model.Registration{}, err
	}

	registration, err := s.repo.CreateRegistration(ctx, model.Registration{
		UserID:  userID,
		EventID: eventID,
		Status:  model.RegistrationActive,
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			s.telemetry.RecordRegistration(ctx, "duplicate")
		}
		return model.Registration{}, err
	}

	s.telemetry.RecordRegistration(ctx, "registered")
	slog.InfoContext(ctx, "User registered for event", "user_id", userID, "event_id", eventID)
	return registration, nil
}

// Cancel marks the user's active registration for eventID as cancelled.
func (s *RegistrationService) Cancel(ctx context.Context, userID, eventID string) (model.Registration, error) {
	registration, err := s.repo.CancelRegistration(ctx, userID, eventID, s.nowFunc())
	if err != nil {
		return model.Registration{}, err
	}

	s.telemetry.RecordRegistration(ctx, "cancelled")
	slog.InfoContext(ctx, "Registration cancelled", "user_id", userID, "event_id", eventID)
	return registration, nil
}

func (s *RegistrationService) Status(ctx context.Context, userID, eventID string) (RegistrationStatus, error) {
	registration, err := s.repo.GetActiveRegistration(ctx, userID, eventID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return RegistrationStatus{}, nil
		}
		return RegistrationStatus{}, err
	}
	return RegistrationStatus{Registered: true, Registration: &registration}, nil
}

// ListForUser returns the user's registrations, newest first, with event details.
func (s *RegistrationService) ListForUser(ctx context.Context, userID string) ([]model.RegistrationDetail, error) {
	return s.repo.ListRegistrationsByUser(ctx, userID)
}

// ListForEvent returns an event's registrations with attendee contact details.
func (s *RegistrationService) ListForEvent(ctx context.Context, eventID string) ([]model.RegistrationDetail, error) {
	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListRegistrationsByEvent(ctx, eventID)
}

func (s *RegistrationService) ListAll(ctx context.Context) ([]model.RegistrationDetail, error) {
	return s.repo.ListRegistrations(ctx)
}
